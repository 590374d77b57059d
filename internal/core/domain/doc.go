// Package domain defines the core business entities for Paperbase.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An archived document with metadata and storage paths
//   - Correspondent, DocumentType, Tag: shared matching-rule holders
//   - MatchingAlgorithm: the closed set of label matching strategies
//   - FilenameInfo: metadata parsed from an intake filename
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
