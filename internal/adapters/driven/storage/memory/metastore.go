package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
type MetadataStore struct {
	mu             sync.RWMutex
	correspondents map[int64]*domain.Correspondent
	types          map[int64]*domain.DocumentType
	tags           map[int64]*domain.Tag
	nextID         int64
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		correspondents: make(map[int64]*domain.Correspondent),
		types:          make(map[int64]*domain.DocumentType),
		tags:           make(map[int64]*domain.Tag),
		nextID:         1,
	}
}

// GetCorrespondent retrieves a correspondent by id.
func (s *MetadataStore) GetCorrespondent(_ context.Context, id int64) (*domain.Correspondent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.correspondents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

// GetOrCreateCorrespondent looks up by name, creating when absent.
func (s *MetadataStore) GetOrCreateCorrespondent(_ context.Context, name string) (*domain.Correspondent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.correspondents {
		if c.Name == name {
			clone := *c
			return &clone, nil
		}
	}
	c := &domain.Correspondent{ID: s.nextID, Name: name}
	s.nextID++
	s.correspondents[c.ID] = c
	clone := *c
	return &clone, nil
}

// ListCorrespondents returns all correspondents ordered by id.
func (s *MetadataStore) ListCorrespondents(_ context.Context) ([]domain.Correspondent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Correspondent, 0, len(s.correspondents))
	for _, c := range s.correspondents {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveCorrespondent inserts or updates a correspondent.
func (s *MetadataStore) SaveCorrespondent(_ context.Context, c *domain.Correspondent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextID
		s.nextID++
	}
	clone := *c
	s.correspondents[c.ID] = &clone
	return nil
}

// GetDocumentType retrieves a document type by id.
func (s *MetadataStore) GetDocumentType(_ context.Context, id int64) (*domain.DocumentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dt, ok := s.types[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *dt
	return &clone, nil
}

// ListDocumentTypes returns all document types ordered by id.
func (s *MetadataStore) ListDocumentTypes(_ context.Context) ([]domain.DocumentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DocumentType, 0, len(s.types))
	for _, dt := range s.types {
		out = append(out, *dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveDocumentType inserts or updates a document type.
func (s *MetadataStore) SaveDocumentType(_ context.Context, dt *domain.DocumentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dt.ID == 0 {
		dt.ID = s.nextID
		s.nextID++
	}
	clone := *dt
	s.types[dt.ID] = &clone
	return nil
}

// GetTag retrieves a tag by id.
func (s *MetadataStore) GetTag(_ context.Context, id int64) (*domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tags[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

// GetOrCreateTag looks up by name, creating when absent.
func (s *MetadataStore) GetOrCreateTag(_ context.Context, name string) (*domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tags {
		if t.Name == name {
			clone := *t
			return &clone, nil
		}
	}
	t := &domain.Tag{ID: s.nextID, Name: name}
	s.nextID++
	s.tags[t.ID] = t
	clone := *t
	return &clone, nil
}

// ListTags returns all tags ordered by id.
func (s *MetadataStore) ListTags(_ context.Context) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListInboxTags returns the tags flagged as inbox tags.
func (s *MetadataStore) ListInboxTags(_ context.Context) ([]domain.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Tag
	for _, t := range s.tags {
		if t.IsInboxTag {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveTag inserts or updates a tag.
func (s *MetadataStore) SaveTag(_ context.Context, t *domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextID
		s.nextID++
	}
	clone := *t
	s.tags[t.ID] = &clone
	return nil
}
