package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// Ensure SearchIndex implements the interface.
var _ driven.SearchIndex = (*SearchIndex)(nil)

// SearchIndex is an in-memory implementation of driven.SearchIndex for
// testing. Matching is naive substring search; ranking is by id.
type SearchIndex struct {
	mu      sync.Mutex
	entries map[int64]*domain.IndexEntry
}

// NewSearchIndex creates a new in-memory search index.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{entries: make(map[int64]*domain.IndexEntry)}
}

// Entry returns the stored entry for inspection in tests.
func (ix *SearchIndex) Entry(id int64) (*domain.IndexEntry, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.entries[id]
	return e, ok
}

// Len returns the number of indexed entries.
func (ix *SearchIndex) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.entries)
}

// Upsert replaces the entry with a matching id.
func (ix *SearchIndex) Upsert(_ context.Context, entry *domain.IndexEntry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	clone := *entry
	ix.entries[entry.ID] = &clone
	return nil
}

// Remove deletes the entry by document id.
func (ix *SearchIndex) Remove(_ context.Context, id int64) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.entries, id)
	return nil
}

// BeginBatch opens a writer; the in-memory index applies mutations
// immediately.
func (ix *SearchIndex) BeginBatch(context.Context) (driven.IndexWriter, error) {
	return &memoryWriter{index: ix}, nil
}

type memoryWriter struct {
	index *SearchIndex
}

func (w *memoryWriter) Upsert(entry *domain.IndexEntry) error {
	return w.index.Upsert(context.Background(), entry)
}

func (w *memoryWriter) Remove(id int64) error {
	return w.index.Remove(context.Background(), id)
}

func (w *memoryWriter) Close() error { return nil }

// Search matches entries containing every query word.
func (ix *SearchIndex) Search(_ context.Context, q driven.Query) (*domain.SearchPage, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	words := strings.Fields(strings.ToLower(q.Text))
	var results []domain.SearchResult
	for _, e := range ix.entries {
		if q.MoreLikeID != 0 && e.ID == q.MoreLikeID {
			continue
		}
		haystack := strings.ToLower(e.Title + " " + e.Content + " " + e.Correspondent + " " + e.Tags + " " + e.Type)
		matched := len(words) > 0
		for _, w := range words {
			if !strings.Contains(haystack, w) {
				matched = false
				break
			}
		}
		if matched {
			results = append(results, domain.SearchResult{
				ID:      e.ID,
				Title:   e.Title,
				Created: e.Created,
				Added:   e.Added,
			})
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })

	page := q.Page
	if page < 1 {
		page = 1
	}
	return &domain.SearchPage{
		Results:   results,
		Page:      page,
		PageCount: 1,
		Total:     len(results),
	}, nil
}

// Autocomplete suggests indexed title words starting with the prefix.
func (ix *SearchIndex) Autocomplete(_ context.Context, prefix string, limit int) ([]string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	prefix = strings.ToLower(prefix)
	seen := map[string]bool{}
	var terms []string
	for _, e := range ix.entries {
		for _, w := range strings.Fields(strings.ToLower(e.Title + " " + e.Content)) {
			if strings.HasPrefix(w, prefix) && !seen[w] {
				seen[w] = true
				terms = append(terms, w)
			}
		}
	}
	sort.Strings(terms)
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms, nil
}

// Reset drops all entries.
func (ix *SearchIndex) Reset(context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = make(map[int64]*domain.IndexEntry)
	return nil
}

// Optimize is a no-op.
func (ix *SearchIndex) Optimize(context.Context) error { return nil }

// Close is a no-op.
func (ix *SearchIndex) Close() error { return nil }
