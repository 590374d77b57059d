package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.DocumentParser = (*Parser)(nil)
}

func TestSupportedMIMETypes(t *testing.T) {
	p := New()
	assert.Equal(t, []string{"application/pdf"}, p.SupportedMIMETypes())
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestParse_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0600))

	p := New()
	defer p.Cleanup() //nolint:errcheck

	_, err := p.Parse(context.Background(), path, "application/pdf")
	assert.Error(t, err)
}

func TestParse_MissingFile(t *testing.T) {
	p := New()
	defer p.Cleanup() //nolint:errcheck

	_, err := p.Parse(context.Background(), "/does/not/exist.pdf", "application/pdf")
	assert.Error(t, err)
}
