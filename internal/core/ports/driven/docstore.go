package driven

import (
	"context"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

// DocumentStore persists document records.
// Backed by SQLite. Ids are assigned monotonically and never reused.
type DocumentStore interface {
	// CreateDocument inserts a new document and assigns its id.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// SaveDocument updates an existing document and its tag
	// associations, then notifies registered observers.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// UpdateFilenames persists the filename fields only, without
	// notifying observers. The rename routine uses this narrow path to
	// avoid save-triggered-by-save recursion.
	UpdateFilenames(ctx context.Context, id int64, filename, archiveFilename *string) error

	// GetDocument retrieves a document by id.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// ListDocuments returns all documents ordered by id.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListDocumentsByTag returns all documents carrying the tag.
	ListDocumentsByTag(ctx context.Context, tagID int64) ([]domain.Document, error)

	// ListInboxDocuments returns documents carrying at least one inbox
	// tag.
	ListInboxDocuments(ctx context.Context) ([]domain.Document, error)

	// FindByChecksum returns the document whose original or archive
	// checksum equals sum, or ErrNotFound.
	FindByChecksum(ctx context.Context, sum string) (*domain.Document, error)

	// DeleteDocument removes the record and its tag associations.
	// File and index cleanup is the caller's responsibility.
	DeleteDocument(ctx context.Context, id int64) error

	// AddObserver registers a post-persistence observer invoked
	// synchronously after each successful SaveDocument commit, in
	// registration order.
	AddObserver(observer DocumentObserver)
}

// DocumentObserver is notified after a document or its tag associations
// were committed. Observers run synchronously on the write path.
type DocumentObserver interface {
	DocumentSaved(ctx context.Context, doc *domain.Document) error
}

// DocumentObserverFunc adapts a function to the DocumentObserver
// interface.
type DocumentObserverFunc func(ctx context.Context, doc *domain.Document) error

// DocumentSaved implements DocumentObserver.
func (f DocumentObserverFunc) DocumentSaved(ctx context.Context, doc *domain.Document) error {
	return f(ctx, doc)
}

// MetadataStore persists the shared matching-rule holders.
type MetadataStore interface {
	// GetCorrespondent retrieves a correspondent by id.
	GetCorrespondent(ctx context.Context, id int64) (*domain.Correspondent, error)

	// GetOrCreateCorrespondent looks a correspondent up by name,
	// creating it when absent.
	GetOrCreateCorrespondent(ctx context.Context, name string) (*domain.Correspondent, error)

	// ListCorrespondents returns all correspondents ordered by id.
	ListCorrespondents(ctx context.Context) ([]domain.Correspondent, error)

	// GetDocumentType retrieves a document type by id.
	GetDocumentType(ctx context.Context, id int64) (*domain.DocumentType, error)

	// ListDocumentTypes returns all document types ordered by id.
	ListDocumentTypes(ctx context.Context) ([]domain.DocumentType, error)

	// GetTag retrieves a tag by id.
	GetTag(ctx context.Context, id int64) (*domain.Tag, error)

	// GetOrCreateTag looks a tag up by name, creating it when absent.
	GetOrCreateTag(ctx context.Context, name string) (*domain.Tag, error)

	// ListTags returns all tags ordered by id.
	ListTags(ctx context.Context) ([]domain.Tag, error)

	// ListInboxTags returns the tags flagged as inbox tags.
	ListInboxTags(ctx context.Context) ([]domain.Tag, error)

	// SaveCorrespondent inserts or updates a correspondent.
	SaveCorrespondent(ctx context.Context, c *domain.Correspondent) error

	// SaveDocumentType inserts or updates a document type.
	SaveDocumentType(ctx context.Context, dt *domain.DocumentType) error

	// SaveTag inserts or updates a tag.
	SaveTag(ctx context.Context, t *domain.Tag) error
}
