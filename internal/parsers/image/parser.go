// Package image parses image documents. Images carry no extractable
// text, so the parse result is a thumbnail only.
package image

import (
	"context"

	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/parsers"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles common raster image formats.
type Parser struct {
	work parsers.WorkArea
}

// New creates a new image parser.
func New() *Parser {
	return &Parser{}
}

// SupportedMIMETypes returns the MIME types this parser handles.
func (p *Parser) SupportedMIMETypes() []string {
	return []string{
		"image/png",
		"image/jpeg",
		"image/gif",
		"image/tiff",
		"image/bmp",
	}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Parse scales the image into a thumbnail.
func (p *Parser) Parse(_ context.Context, path, _ string) (*driven.ParseResult, error) {
	dir, err := p.work.Dir()
	if err != nil {
		return nil, err
	}
	thumb, err := parsers.WriteThumbnailFrom(path, dir)
	if err != nil {
		return nil, err
	}
	return &driven.ParseResult{ThumbnailPath: thumb}, nil
}

// Cleanup removes the parser's temporary files.
func (p *Parser) Cleanup() error {
	return p.work.Cleanup()
}
