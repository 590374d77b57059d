// Package memory provides in-memory implementations of the storage
// ports for testing. Semantics mirror the sqlite adapter: monotonic
// ids, observer notification on save, ErrNotFound on misses.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	docs      map[int64]*domain.Document
	nextID    int64
	observers []driven.DocumentObserver

	// meta is consulted for inbox tag lookups, may be nil.
	meta *MetadataStore
}

// NewDocumentStore creates a new in-memory document store. meta may be
// nil when inbox listing is not exercised.
func NewDocumentStore(meta *MetadataStore) *DocumentStore {
	return &DocumentStore{docs: make(map[int64]*domain.Document), nextID: 1, meta: meta}
}

// AddObserver registers a post-save observer.
func (s *DocumentStore) AddObserver(observer driven.DocumentObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// CreateDocument inserts a document and assigns the next id.
func (s *DocumentStore) CreateDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if doc.Added.IsZero() {
		doc.Added = now
	}
	if doc.Created.IsZero() {
		doc.Created = doc.Added
	}
	doc.Modified = now
	doc.ID = s.nextID
	s.nextID++

	s.docs[doc.ID] = cloneDoc(doc)
	return nil
}

// SaveDocument updates a document and notifies observers.
func (s *DocumentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	if _, ok := s.docs[doc.ID]; !ok {
		s.mu.Unlock()
		return domain.ErrNotFound
	}
	doc.Modified = time.Now().UTC()
	s.docs[doc.ID] = cloneDoc(doc)
	observers := make([]driven.DocumentObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		if err := o.DocumentSaved(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFilenames persists the filename fields without notification.
func (s *DocumentStore) UpdateFilenames(_ context.Context, id int64, filename, archiveFilename *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Filename = filename
	doc.ArchiveFilename = archiveFilename
	doc.Modified = time.Now().UTC()
	return nil
}

// GetDocument retrieves a document by id.
func (s *DocumentStore) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneDoc(doc), nil
}

// ListDocuments returns all documents ordered by id.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWhere(func(*domain.Document) bool { return true }), nil
}

// ListDocumentsByTag returns the documents carrying the tag.
func (s *DocumentStore) ListDocumentsByTag(_ context.Context, tagID int64) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWhere(func(doc *domain.Document) bool {
		for _, id := range doc.TagIDs {
			if id == tagID {
				return true
			}
		}
		return false
	}), nil
}

// ListInboxDocuments returns documents carrying at least one inbox tag.
func (s *DocumentStore) ListInboxDocuments(ctx context.Context) ([]domain.Document, error) {
	inbox := map[int64]bool{}
	if s.meta != nil {
		tags, err := s.meta.ListInboxTags(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			inbox[t.ID] = true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWhere(func(doc *domain.Document) bool {
		for _, id := range doc.TagIDs {
			if inbox[id] {
				return true
			}
		}
		return false
	}), nil
}

// FindByChecksum matches the original or archive checksum.
func (s *DocumentStore) FindByChecksum(_ context.Context, sum string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.docs {
		if doc.Checksum == sum || (doc.ArchiveChecksum != "" && doc.ArchiveChecksum == sum) {
			return cloneDoc(doc), nil
		}
	}
	return nil, domain.ErrNotFound
}

// DeleteDocument removes the record.
func (s *DocumentStore) DeleteDocument(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *DocumentStore) listWhere(keep func(*domain.Document) bool) []domain.Document {
	var out []domain.Document
	for _, doc := range s.docs {
		if keep(doc) {
			out = append(out, *cloneDoc(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneDoc(doc *domain.Document) *domain.Document {
	c := *doc
	if doc.TagIDs != nil {
		c.TagIDs = append([]int64(nil), doc.TagIDs...)
	}
	if doc.Filename != nil {
		f := *doc.Filename
		c.Filename = &f
	}
	if doc.ArchiveFilename != nil {
		f := *doc.ArchiveFilename
		c.ArchiveFilename = &f
	}
	if doc.CorrespondentID != nil {
		id := *doc.CorrespondentID
		c.CorrespondentID = &id
	}
	if doc.DocumentTypeID != nil {
		id := *doc.DocumentTypeID
		c.DocumentTypeID = &id
	}
	return &c
}
