package driven

import "context"

// DocumentParser extracts text and renditions from one family of MIME
// types. Parsers work in a scoped temporary directory and must release
// it through Cleanup regardless of success or failure.
type DocumentParser interface {
	// SupportedMIMETypes returns the MIME types this parser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred) when
	// several parsers support the same MIME type.
	Priority() int

	// Parse extracts text from the file and produces a thumbnail.
	// An archival rendition is optional; ArchivePath is empty when the
	// parser produced none, which is a valid outcome.
	Parse(ctx context.Context, path, mimeType string) (*ParseResult, error)

	// Cleanup removes the parser's temporary working files. Safe to call
	// after a failed Parse.
	Cleanup() error
}

// ParseResult is the output of a successful parse.
type ParseResult struct {
	// Text is the extracted plain text, possibly empty.
	Text string

	// ArchivePath points at a normalised archival rendition inside the
	// parser's working directory, or "" when none was produced.
	ArchivePath string

	// ThumbnailPath points at the generated thumbnail image.
	ThumbnailPath string

	// Created is a document date recognised inside the content, nil
	// when the parser found none.
	Created *CreatedDate
}

// CreatedDate carries a recognised document date as year/month/day to
// keep the port free of parser-local time-zone decisions.
type CreatedDate struct {
	Year  int
	Month int
	Day   int
}

// ParserFactory builds a fresh parser instance for one consumption run.
type ParserFactory func() DocumentParser

// ParserRegistry maps MIME types to parser factories ordered by a
// declared priority weight.
type ParserRegistry interface {
	// Register adds a parser factory. The probe instance is used to read
	// the supported MIME types and priority.
	Register(factory ParserFactory)

	// ParserFor returns a new parser instance for the MIME type, or
	// false when no registered parser supports it.
	ParserFor(mimeType string) (DocumentParser, bool)

	// SupportedMIMETypes returns all MIME types with at least one
	// registered parser.
	SupportedMIMETypes() []string
}
