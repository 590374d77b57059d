// Package pdf parses PDF documents using a pure Go text extractor.
//
// An archival rendition is only produced when the file carries a text
// layer; image-only PDFs yield empty text and no rendition, which the
// consumer accepts as a valid outcome.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/parsers"
)

// Ensure Parser implements the interface.
var _ driven.DocumentParser = (*Parser)(nil)

// Parser handles PDF documents.
type Parser struct {
	work parsers.WorkArea
}

// New creates a new PDF parser.
func New() *Parser {
	return &Parser{}
}

// SupportedMIMETypes returns the MIME types this parser handles.
func (p *Parser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Parse extracts the text layer and, when one exists, copies the file
// as its archival rendition.
func (p *Parser) Parse(_ context.Context, path, _ string) (*driven.ParseResult, error) {
	text, err := extractText(path)
	if err != nil {
		return nil, fmt.Errorf("extracting pdf text: %w", err)
	}

	dir, err := p.work.Dir()
	if err != nil {
		return nil, err
	}
	thumb, err := parsers.WritePlaceholderThumbnail(dir)
	if err != nil {
		return nil, err
	}

	result := &driven.ParseResult{
		Text:          text,
		ThumbnailPath: thumb,
		Created:       parsers.FindCreatedDate(text),
	}

	if strings.TrimSpace(text) != "" {
		archive := filepath.Join(dir, uuid.NewString()+".pdf")
		if err := copyFile(path, archive); err != nil {
			return nil, fmt.Errorf("writing archival rendition: %w", err)
		}
		result.ArchivePath = archive
	}
	return result, nil
}

// Cleanup removes the parser's temporary files.
func (p *Parser) Cleanup() error {
	return p.work.Cleanup()
}

func extractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
