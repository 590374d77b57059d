// Package parsers provides implementations of the DocumentParser
// interface for the supported document formats. Each parser knows how
// to extract text, a thumbnail and optionally an archival rendition
// from a specific family of MIME types.
//
// Parsers are registered with the Registry at startup. The consumer
// selects a parser by the detected MIME type, preferring higher
// priority when several parsers support the same type.
package parsers
