// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: document record persistence
//   - MetadataStore: correspondent/type/tag persistence
//   - DocumentParser: per-MIME text/archive/thumbnail extraction
//   - ParserRegistry: selects the parser for a MIME type
//   - SearchIndex: full-text index mirroring document records
//   - HookRunner: external pre/post-consume scripts
//
// The search index is a pure projection of the document store and is
// always rebuildable from it.
package driven
