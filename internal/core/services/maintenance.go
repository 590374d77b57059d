package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

// Ensure MaintenanceService implements the interface.
var _ driving.Maintenance = (*MaintenanceService)(nil)

// MaintenanceService drives the administrative operations: reindexing,
// training, retagging, renaming, thumbnail regeneration, sanity checks
// and archive export/import.
type MaintenanceService struct {
	docs       driven.DocumentStore
	meta       driven.MetadataStore
	index      driven.SearchIndex
	registry   driven.ParserRegistry
	files      *FileManager
	classifier *Classifier
	matcher    *Matcher
	sanity     *SanityChecker
	exporter   *Exporter
}

// NewMaintenanceService creates the maintenance service.
func NewMaintenanceService(
	docs driven.DocumentStore,
	meta driven.MetadataStore,
	index driven.SearchIndex,
	registry driven.ParserRegistry,
	files *FileManager,
	classifier *Classifier,
	matcher *Matcher,
) *MaintenanceService {
	return &MaintenanceService{
		docs:       docs,
		meta:       meta,
		index:      index,
		registry:   registry,
		files:      files,
		classifier: classifier,
		matcher:    matcher,
		sanity:     NewSanityChecker(docs, files),
		exporter:   NewExporter(docs, meta, index, files),
	}
}

// Reindex rebuilds the search index from the record store.
func (s *MaintenanceService) Reindex(ctx context.Context) error {
	logger.Section("Reindex")
	if err := s.index.Reset(ctx); err != nil {
		return err
	}

	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return err
	}

	writer, err := s.index.BeginBatch(ctx)
	if err != nil {
		return err
	}
	defer writer.Close() //nolint:errcheck

	for i := range docs {
		entry, err := indexEntryFor(ctx, s.meta, &docs[i])
		if err != nil {
			return err
		}
		if err := writer.Upsert(entry); err != nil {
			return fmt.Errorf("indexing document %d: %w", docs[i].ID, err)
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	logger.Info("reindexed %d documents", len(docs))
	return nil
}

// OptimizeIndex compacts the index storage.
func (s *MaintenanceService) OptimizeIndex(ctx context.Context) error {
	return s.index.Optimize(ctx)
}

// Train retrains the classifier.
func (s *MaintenanceService) Train(ctx context.Context) (bool, error) {
	return s.classifier.Train(ctx)
}

// Retag re-applies matching rules and classifier predictions.
func (s *MaintenanceService) Retag(ctx context.Context, opts driving.RetagOptions) error {
	logger.Section("Retag")

	var docs []domain.Document
	var err error
	if opts.InboxOnly {
		docs, err = s.docs.ListInboxDocuments(ctx)
	} else {
		docs, err = s.docs.ListDocuments(ctx)
	}
	if err != nil {
		return err
	}

	writer, err := s.index.BeginBatch(ctx)
	if err != nil {
		return err
	}
	defer writer.Close() //nolint:errcheck

	for i := range docs {
		doc := &docs[i]
		changed, err := s.retagOne(ctx, doc, opts)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		if err := s.docs.SaveDocument(ctx, doc); err != nil {
			return fmt.Errorf("saving document %d: %w", doc.ID, err)
		}
		entry, err := indexEntryFor(ctx, s.meta, doc)
		if err != nil {
			return err
		}
		if err := writer.Upsert(entry); err != nil {
			return err
		}
	}
	return writer.Close()
}

func (s *MaintenanceService) retagOne(ctx context.Context, doc *domain.Document, opts driving.RetagOptions) (bool, error) {
	changed := false

	if opts.Correspondent && (doc.CorrespondentID == nil || opts.Overwrite) {
		matched, err := s.matcher.MatchCorrespondents(ctx, doc.Content)
		if err != nil {
			return false, err
		}
		if id := pickSingle(len(matched), opts.UseFirst, doc, "correspondents"); id >= 0 {
			if doc.CorrespondentID == nil || *doc.CorrespondentID != matched[id].ID {
				doc.CorrespondentID = &matched[id].ID
				changed = true
			}
		}
	}

	if opts.DocumentType && (doc.DocumentTypeID == nil || opts.Overwrite) {
		matched, err := s.matcher.MatchDocumentTypes(ctx, doc.Content)
		if err != nil {
			return false, err
		}
		if id := pickSingle(len(matched), opts.UseFirst, doc, "document types"); id >= 0 {
			if doc.DocumentTypeID == nil || *doc.DocumentTypeID != matched[id].ID {
				doc.DocumentTypeID = &matched[id].ID
				changed = true
			}
		}
	}

	if opts.Tags {
		matched, err := s.matcher.MatchTags(ctx, doc.Content)
		if err != nil {
			return false, err
		}
		existing := map[int64]bool{}
		for _, id := range doc.TagIDs {
			existing[id] = true
		}
		if opts.Overwrite {
			// Rebuild from matches alone, keeping inbox tags.
			kept, err := s.inboxSubset(ctx, doc.TagIDs)
			if err != nil {
				return false, err
			}
			next := kept
			seen := map[int64]bool{}
			for _, id := range next {
				seen[id] = true
			}
			for _, t := range matched {
				if !seen[t.ID] {
					next = append(next, t.ID)
					seen[t.ID] = true
				}
			}
			if !sameIDSet(doc.TagIDs, next) {
				doc.TagIDs = next
				changed = true
			}
		} else {
			for _, t := range matched {
				if !existing[t.ID] {
					doc.TagIDs = append(doc.TagIDs, t.ID)
					changed = true
				}
			}
		}
	}
	return changed, nil
}

// pickSingle resolves ambiguity: one match wins, several matches win
// only with UseFirst. Returns the index to use or -1.
func pickSingle(matches int, useFirst bool, doc *domain.Document, what string) int {
	switch {
	case matches == 1:
		return 0
	case matches > 1 && useFirst:
		logger.Warn("%d %s match document %d, using the first", matches, what, doc.ID)
		return 0
	case matches > 1:
		logger.Warn("%d %s match document %d, assigning none", matches, what, doc.ID)
		return -1
	default:
		return -1
	}
}

func (s *MaintenanceService) inboxSubset(ctx context.Context, tagIDs []int64) ([]int64, error) {
	var kept []int64
	for _, id := range tagIDs {
		tag, err := s.meta.GetTag(ctx, id)
		if err != nil {
			return nil, err
		}
		if tag.IsInboxTag {
			kept = append(kept, id)
		}
	}
	return kept, nil
}

func sameIDSet(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	set := map[int64]bool{}
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}

// RenameAll recomputes canonical filenames for every placed document.
func (s *MaintenanceService) RenameAll(ctx context.Context) error {
	logger.Section("Rename")
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return err
	}
	for i := range docs {
		doc := &docs[i]
		if doc.Filename == nil {
			continue
		}
		if err := s.files.renameToMatchMetadata(ctx, doc); err != nil {
			return fmt.Errorf("renaming document %d: %w", doc.ID, err)
		}
	}
	return nil
}

// RegenerateThumbnails rebuilds every document's thumbnail through the
// parser registry.
func (s *MaintenanceService) RegenerateThumbnails(ctx context.Context) error {
	logger.Section("Thumbnails")
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return err
	}
	for i := range docs {
		doc := &docs[i]
		if doc.Filename == nil {
			continue
		}
		if err := s.regenerateThumbnail(ctx, doc); err != nil {
			logger.Error("thumbnail for document %d: %v", doc.ID, err)
		}
	}
	return nil
}

func (s *MaintenanceService) regenerateThumbnail(ctx context.Context, doc *domain.Document) error {
	parser, ok := s.registry.ParserFor(doc.MIMEType)
	if !ok {
		return fmt.Errorf("no parser for %s", doc.MIMEType)
	}
	defer parser.Cleanup() //nolint:errcheck

	result, err := parser.Parse(ctx, s.files.OriginalPath(doc), doc.MIMEType)
	if err != nil {
		return err
	}
	if result.ThumbnailPath == "" {
		return fmt.Errorf("parser produced no thumbnail")
	}
	return copyInto(result.ThumbnailPath, s.files.ThumbnailPath(doc))
}

// CheckSanity cross-validates records against the filesystem.
func (s *MaintenanceService) CheckSanity(ctx context.Context) ([]domain.SanityMessage, error) {
	return s.sanity.Check(ctx)
}

// Export writes all documents plus a portable manifest to target.
func (s *MaintenanceService) Export(ctx context.Context, target string) error {
	return s.exporter.Export(ctx, target)
}

// Import restores an exported manifest directory.
func (s *MaintenanceService) Import(ctx context.Context, source string) error {
	return s.exporter.Import(ctx, source)
}
