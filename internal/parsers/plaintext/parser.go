// Package plaintext parses plain text documents. The original file is
// its own archival rendition, so none is produced.
package plaintext

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/parsers"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles plain text documents.
type Parser struct {
	work parsers.WorkArea
}

// New creates a new plain text parser.
func New() *Parser {
	return &Parser{}
}

// SupportedMIMETypes returns the MIME types this parser handles.
func (p *Parser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/markdown",
	}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 5 // Fallback parser for text types.
}

// Parse reads the file verbatim and writes a placeholder thumbnail.
func (p *Parser) Parse(_ context.Context, path, _ string) (*driven.ParseResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading text document: %w", err)
	}

	dir, err := p.work.Dir()
	if err != nil {
		return nil, err
	}
	thumb, err := parsers.WritePlaceholderThumbnail(dir)
	if err != nil {
		return nil, err
	}

	text := string(content)
	return &driven.ParseResult{
		Text:          text,
		ThumbnailPath: thumb,
		Created:       parsers.FindCreatedDate(text),
	}, nil
}

// Cleanup removes the parser's temporary files.
func (p *Parser) Cleanup() error {
	return p.work.Cleanup()
}
