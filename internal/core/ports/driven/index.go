package driven

import (
	"context"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

// SearchIndex maintains the inverted full-text index mirroring document
// records. One writer is open at a time; multi-document mutations must
// batch through a single IndexWriter instead of opening one per
// document.
type SearchIndex interface {
	// Upsert replaces any existing entry with a matching id.
	Upsert(ctx context.Context, entry *domain.IndexEntry) error

	// Remove deletes the entry by document id.
	Remove(ctx context.Context, id int64) error

	// BeginBatch opens the shared writer for a multi-document mutation.
	// It blocks while another writer is open.
	BeginBatch(ctx context.Context) (IndexWriter, error)

	// Search answers a free-text query. Page numbers below 1 fall back
	// to page 1; pages past the end serve the last page.
	Search(ctx context.Context, q Query) (*domain.SearchPage, error)

	// Autocomplete returns up to limit of the most distinctive content
	// terms starting with the lower-cased prefix.
	Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error)

	// Reset drops all entries, leaving an empty index.
	Reset(ctx context.Context) error

	// Optimize compacts the index storage.
	Optimize(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// IndexWriter applies a batch of index mutations within one writer
// session.
type IndexWriter interface {
	Upsert(entry *domain.IndexEntry) error
	Remove(id int64) error

	// Close commits the batch and releases the shared writer.
	Close() error
}

// Query describes one search request.
type Query struct {
	// Text is the free-text query. Supports field-scoped terms
	// (title:, correspondent:, tag:, type:) and created/added/modified
	// date range expressions.
	Text string

	// MoreLikeID requests a similarity search seeded by the content of
	// the given document; the document itself is excluded from results.
	// Zero disables the similarity query.
	MoreLikeID int64

	// MoreLikeContent is the reference content for MoreLikeID.
	MoreLikeContent string

	// Page is the 1-based page number. Invalid values fall back to 1.
	Page int

	// PageSize is the number of results per page; 0 selects the
	// default.
	PageSize int
}
