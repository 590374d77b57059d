package driving

import (
	"context"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

// RetagOptions control how existing documents are re-labelled from the
// current matching rules and classifier model.
type RetagOptions struct {
	// Correspondent, DocumentType and Tags select which label spaces to
	// reprocess.
	Correspondent bool
	DocumentType  bool
	Tags          bool

	// InboxOnly restricts the pass to documents carrying an inbox tag.
	InboxOnly bool

	// Overwrite replaces labels that were already assigned.
	Overwrite bool

	// UseFirst picks the first of several rule matches instead of
	// rejecting the ambiguous assignment.
	UseFirst bool
}

// BulkEditor applies batch mutations across many documents with one
// index writer session per call. An invalid id anywhere in the
// selection rejects the whole batch before any mutation.
type BulkEditor interface {
	SetCorrespondent(ctx context.Context, documentIDs []int64, correspondentID *int64) error
	SetDocumentType(ctx context.Context, documentIDs []int64, documentTypeID *int64) error
	AddTag(ctx context.Context, documentIDs []int64, tagID int64) error
	RemoveTag(ctx context.Context, documentIDs []int64, tagID int64) error
	Delete(ctx context.Context, documentIDs []int64) error
}

// Maintenance groups the operations the CLI layer drives.
type Maintenance interface {
	// Reindex rebuilds the search index from the record store.
	Reindex(ctx context.Context) error

	// OptimizeIndex compacts the index storage.
	OptimizeIndex(ctx context.Context) error

	// Train retrains the classifier, returning whether the model
	// changed.
	Train(ctx context.Context) (bool, error)

	// Retag re-applies matching rules and classifier predictions to
	// existing documents.
	Retag(ctx context.Context, opts RetagOptions) error

	// RenameAll recomputes canonical filenames for every document.
	RenameAll(ctx context.Context) error

	// RegenerateThumbnails rebuilds every document's thumbnail through
	// the parser registry.
	RegenerateThumbnails(ctx context.Context) error

	// CheckSanity cross-validates records against the filesystem.
	CheckSanity(ctx context.Context) ([]domain.SanityMessage, error)

	// Export writes all documents plus a portable manifest to target.
	Export(ctx context.Context, target string) error

	// Import restores an exported manifest directory.
	Import(ctx context.Context, source string) error
}
