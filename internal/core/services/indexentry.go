package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// indexEntryFor projects a document record onto its search index entry,
// resolving entity ids to names.
func indexEntryFor(ctx context.Context, meta driven.MetadataStore, doc *domain.Document) (*domain.IndexEntry, error) {
	entry := &domain.IndexEntry{
		ID:       doc.ID,
		Title:    doc.Title,
		Content:  doc.Content,
		Created:  doc.Created,
		Modified: doc.Modified,
		Added:    doc.Added,
	}

	if doc.CorrespondentID != nil {
		c, err := meta.GetCorrespondent(ctx, *doc.CorrespondentID)
		if err != nil {
			return nil, err
		}
		entry.Correspondent = c.Name
	}
	if doc.DocumentTypeID != nil {
		dt, err := meta.GetDocumentType(ctx, *doc.DocumentTypeID)
		if err != nil {
			return nil, err
		}
		entry.Type = dt.Name
	}
	if len(doc.TagIDs) > 0 {
		names := make([]string, 0, len(doc.TagIDs))
		for _, id := range doc.TagIDs {
			tag, err := meta.GetTag(ctx, id)
			if err != nil {
				return nil, err
			}
			names = append(names, strings.ToLower(tag.Name))
		}
		entry.Tags = strings.Join(names, ",")
	}
	return entry, nil
}
