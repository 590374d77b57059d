package plaintext

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
	assert.Contains(t, p.SupportedMIMETypes(), "text/plain")
	assert.Contains(t, p.SupportedMIMETypes(), "text/csv")
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path,
		[]byte("Meeting notes from 2023-05-02\nbudget discussion"), 0600))

	p := New()
	defer p.Cleanup() //nolint:errcheck

	result, err := p.Parse(context.Background(), path, "text/plain")
	require.NoError(t, err)

	assert.Contains(t, result.Text, "budget discussion")
	assert.Empty(t, result.ArchivePath, "plain text needs no rendition")
	assert.FileExists(t, result.ThumbnailPath)
	require.NotNil(t, result.Created)
	assert.Equal(t, 2023, result.Created.Year)
	assert.Equal(t, 5, result.Created.Month)
}

func TestParse_MissingFile(t *testing.T) {
	p := New()
	defer p.Cleanup() //nolint:errcheck

	_, err := p.Parse(context.Background(), "/does/not/exist.txt", "text/plain")
	assert.Error(t, err)
}

func TestCleanupRemovesThumbnail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0600))

	p := New()
	result, err := p.Parse(context.Background(), path, "text/plain")
	require.NoError(t, err)
	require.NoError(t, p.Cleanup())
	assert.NoFileExists(t, result.ThumbnailPath)
}
