package services

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperbase-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// testEnv bundles the in-memory collaborators most service tests need.
type testEnv struct {
	docs  *memory.DocumentStore
	meta  *memory.MetadataStore
	index *memory.SearchIndex
	files *FileManager
	root  string
}

func newTestEnv(t *testing.T, format string) *testEnv {
	t.Helper()
	meta := memory.NewMetadataStore()
	docs := memory.NewDocumentStore(meta)
	root := t.TempDir()
	return &testEnv{
		docs:  docs,
		meta:  meta,
		index: memory.NewSearchIndex(),
		files: NewFileManager(root, format, meta, docs),
		root:  root,
	}
}

// placeDocument creates a record for content and stores it on disk the
// way a completed consumption would.
func (e *testEnv) placeDocument(t *testing.T, title, content string) *domain.Document {
	t.Helper()
	ctx := context.Background()

	source := filepath.Join(t.TempDir(), "source.txt")
	require.NoError(t, os.WriteFile(source, []byte(content), 0600))
	sum, err := fileMD5(source)
	require.NoError(t, err)

	thumb := filepath.Join(t.TempDir(), "thumb.png")
	require.NoError(t, os.WriteFile(thumb, []byte("png bytes"), 0600))

	doc := &domain.Document{
		Title:       title,
		Content:     content,
		MIMEType:    "text/plain",
		StorageType: domain.StorageTypeUnencrypted,
		Checksum:    sum,
		Created:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, e.docs.CreateDocument(ctx, doc))
	require.NoError(t, e.files.Place(ctx, doc, source, "", thumb))
	return doc
}

func tagNames(t *testing.T, meta driven.MetadataStore, ids []int64) []string {
	t.Helper()
	var names []string
	for _, id := range ids {
		tag, err := meta.GetTag(context.Background(), id)
		require.NoError(t, err)
		names = append(names, tag.Name)
	}
	sort.Strings(names)
	return names
}

// stubParser is a canned DocumentParser for pipeline tests.
type stubParser struct {
	mimes    []string
	priority int
	result   driven.ParseResult
	parseErr error
	cleaned  bool
}

func (p *stubParser) SupportedMIMETypes() []string { return p.mimes }

func (p *stubParser) Priority() int { return p.priority }

func (p *stubParser) Parse(context.Context, string, string) (*driven.ParseResult, error) {
	if p.parseErr != nil {
		return nil, p.parseErr
	}
	result := p.result
	return &result, nil
}

func (p *stubParser) Cleanup() error {
	p.cleaned = true
	return nil
}

// stubRegistry hands out the registered parser instances directly.
type stubRegistry struct {
	parsers map[string]driven.DocumentParser
}

func newStubRegistry(parsers ...driven.DocumentParser) *stubRegistry {
	r := &stubRegistry{parsers: map[string]driven.DocumentParser{}}
	for _, p := range parsers {
		for _, m := range p.SupportedMIMETypes() {
			r.parsers[m] = p
		}
	}
	return r
}

func (r *stubRegistry) Register(factory driven.ParserFactory) {
	p := factory()
	for _, m := range p.SupportedMIMETypes() {
		r.parsers[m] = p
	}
}

func (r *stubRegistry) ParserFor(mimeType string) (driven.DocumentParser, bool) {
	p, ok := r.parsers[mimeType]
	return p, ok
}

func (r *stubRegistry) SupportedMIMETypes() []string {
	var mimes []string
	for m := range r.parsers {
		mimes = append(mimes, m)
	}
	sort.Strings(mimes)
	return mimes
}

// recordingHooks captures hook invocations.
type recordingHooks struct {
	pre     []string
	post    []driven.PostConsumeArgs
	preErr  error
	postErr error
}

func (h *recordingHooks) RunPreConsume(_ context.Context, sourcePath string) error {
	h.pre = append(h.pre, sourcePath)
	return h.preErr
}

func (h *recordingHooks) RunPostConsume(_ context.Context, args driven.PostConsumeArgs) error {
	h.post = append(h.post, args)
	return h.postErr
}
