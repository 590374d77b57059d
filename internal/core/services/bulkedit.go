package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

// Ensure BulkEditService implements the interface.
var _ driving.BulkEditor = (*BulkEditService)(nil)

// BulkEditService applies one mutation across many documents, sharing a
// single index writer session per call. The whole selection is
// validated before the first mutation, so an invalid id anywhere
// rejects the entire batch.
type BulkEditService struct {
	docs  driven.DocumentStore
	meta  driven.MetadataStore
	index driven.SearchIndex
	files *FileManager
}

// NewBulkEditService creates a bulk editor.
func NewBulkEditService(docs driven.DocumentStore, meta driven.MetadataStore, index driven.SearchIndex, files *FileManager) *BulkEditService {
	return &BulkEditService{docs: docs, meta: meta, index: index, files: files}
}

// SetCorrespondent assigns (or clears, when nil) the correspondent.
func (s *BulkEditService) SetCorrespondent(ctx context.Context, documentIDs []int64, correspondentID *int64) error {
	if correspondentID != nil {
		if _, err := s.meta.GetCorrespondent(ctx, *correspondentID); err != nil {
			return fmt.Errorf("correspondent %d: %w", *correspondentID, err)
		}
	}
	return s.mutate(ctx, documentIDs, func(doc *domain.Document) {
		doc.CorrespondentID = correspondentID
	})
}

// SetDocumentType assigns (or clears, when nil) the document type.
func (s *BulkEditService) SetDocumentType(ctx context.Context, documentIDs []int64, documentTypeID *int64) error {
	if documentTypeID != nil {
		if _, err := s.meta.GetDocumentType(ctx, *documentTypeID); err != nil {
			return fmt.Errorf("document type %d: %w", *documentTypeID, err)
		}
	}
	return s.mutate(ctx, documentIDs, func(doc *domain.Document) {
		doc.DocumentTypeID = documentTypeID
	})
}

// AddTag attaches the tag to every selected document.
func (s *BulkEditService) AddTag(ctx context.Context, documentIDs []int64, tagID int64) error {
	if _, err := s.meta.GetTag(ctx, tagID); err != nil {
		return fmt.Errorf("tag %d: %w", tagID, err)
	}
	return s.mutate(ctx, documentIDs, func(doc *domain.Document) {
		for _, id := range doc.TagIDs {
			if id == tagID {
				return
			}
		}
		doc.TagIDs = append(doc.TagIDs, tagID)
	})
}

// RemoveTag detaches the tag from every selected document.
func (s *BulkEditService) RemoveTag(ctx context.Context, documentIDs []int64, tagID int64) error {
	if _, err := s.meta.GetTag(ctx, tagID); err != nil {
		return fmt.Errorf("tag %d: %w", tagID, err)
	}
	return s.mutate(ctx, documentIDs, func(doc *domain.Document) {
		kept := doc.TagIDs[:0]
		for _, id := range doc.TagIDs {
			if id != tagID {
				kept = append(kept, id)
			}
		}
		doc.TagIDs = kept
	})
}

// Delete removes the selected documents, their files and index entries.
func (s *BulkEditService) Delete(ctx context.Context, documentIDs []int64) error {
	docs, err := s.loadAll(ctx, documentIDs)
	if err != nil {
		return err
	}

	writer, err := s.index.BeginBatch(ctx)
	if err != nil {
		return err
	}
	defer writer.Close() //nolint:errcheck

	for _, doc := range docs {
		if err := s.files.Remove(doc); err != nil {
			return fmt.Errorf("removing files of document %d: %w", doc.ID, err)
		}
		if err := s.docs.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("deleting document %d: %w", doc.ID, err)
		}
		if err := writer.Remove(doc.ID); err != nil {
			return fmt.Errorf("unindexing document %d: %w", doc.ID, err)
		}
	}
	logger.Info("deleted %d documents", len(docs))
	return writer.Close()
}

// mutate loads the whole selection, applies change, saves and reindexes
// through one batch writer.
func (s *BulkEditService) mutate(ctx context.Context, documentIDs []int64, change func(*domain.Document)) error {
	docs, err := s.loadAll(ctx, documentIDs)
	if err != nil {
		return err
	}

	writer, err := s.index.BeginBatch(ctx)
	if err != nil {
		return err
	}
	defer writer.Close() //nolint:errcheck

	for _, doc := range docs {
		change(doc)
		if err := s.docs.SaveDocument(ctx, doc); err != nil {
			return fmt.Errorf("saving document %d: %w", doc.ID, err)
		}
		entry, err := indexEntryFor(ctx, s.meta, doc)
		if err != nil {
			return err
		}
		if err := writer.Upsert(entry); err != nil {
			return fmt.Errorf("reindexing document %d: %w", doc.ID, err)
		}
	}
	return writer.Close()
}

// loadAll resolves the selection up front, failing on the first unknown
// id before anything was touched.
func (s *BulkEditService) loadAll(ctx context.Context, documentIDs []int64) ([]*domain.Document, error) {
	docs := make([]*domain.Document, 0, len(documentIDs))
	for _, id := range documentIDs {
		doc, err := s.docs.GetDocument(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", id, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
