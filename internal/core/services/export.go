package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

// manifestVersion guards the export layout.
const manifestVersion = 1

const manifestName = "manifest.json"

// manifest is the portable description of an exported archive.
type manifest struct {
	Version        int                  `json:"version"`
	ExportedAt     time.Time            `json:"exported_at"`
	Correspondents []manifestRuleHolder `json:"correspondents"`
	DocumentTypes  []manifestRuleHolder `json:"document_types"`
	Tags           []manifestTag        `json:"tags"`
	Documents      []manifestDocument   `json:"documents"`
}

type manifestRuleHolder struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Algorithm  int    `json:"matching_algorithm"`
	Expression string `json:"match"`
}

type manifestTag struct {
	manifestRuleHolder
	Color      string `json:"color"`
	IsInboxTag bool   `json:"is_inbox_tag"`
}

type manifestDocument struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	CorrespondentID *int64    `json:"correspondent_id,omitempty"`
	DocumentTypeID  *int64    `json:"document_type_id,omitempty"`
	TagIDs          []int64   `json:"tag_ids,omitempty"`
	Created         time.Time `json:"created"`
	Added           time.Time `json:"added"`
	MIMEType        string    `json:"mime_type"`
	StorageType     string    `json:"storage_type"`
	Checksum        string    `json:"checksum"`
	ArchiveChecksum string    `json:"archive_checksum,omitempty"`

	// File names inside the export directory.
	Original  string `json:"original"`
	Archive   string `json:"archive,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Exporter writes the whole archive into a portable directory and
// restores one back into an empty archive.
type Exporter struct {
	docs  driven.DocumentStore
	meta  driven.MetadataStore
	index driven.SearchIndex
	files *FileManager
}

// NewExporter creates an exporter.
func NewExporter(docs driven.DocumentStore, meta driven.MetadataStore, index driven.SearchIndex, files *FileManager) *Exporter {
	return &Exporter{docs: docs, meta: meta, index: index, files: files}
}

// Export writes every document plus the manifest to target.
func (e *Exporter) Export(ctx context.Context, target string) error {
	if err := os.MkdirAll(target, 0700); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}

	m := manifest{Version: manifestVersion, ExportedAt: time.Now().UTC()}

	correspondents, err := e.meta.ListCorrespondents(ctx)
	if err != nil {
		return err
	}
	for _, c := range correspondents {
		m.Correspondents = append(m.Correspondents, manifestRuleHolder{
			ID: c.ID, Name: c.Name, Algorithm: int(c.Algorithm), Expression: c.Expression,
		})
	}

	types, err := e.meta.ListDocumentTypes(ctx)
	if err != nil {
		return err
	}
	for _, dt := range types {
		m.DocumentTypes = append(m.DocumentTypes, manifestRuleHolder{
			ID: dt.ID, Name: dt.Name, Algorithm: int(dt.Algorithm), Expression: dt.Expression,
		})
	}

	tags, err := e.meta.ListTags(ctx)
	if err != nil {
		return err
	}
	for _, t := range tags {
		m.Tags = append(m.Tags, manifestTag{
			manifestRuleHolder: manifestRuleHolder{
				ID: t.ID, Name: t.Name, Algorithm: int(t.Algorithm), Expression: t.Expression,
			},
			Color:      t.Color,
			IsInboxTag: t.IsInboxTag,
		})
	}

	docs, err := e.docs.ListDocuments(ctx)
	if err != nil {
		return err
	}
	for i := range docs {
		doc := &docs[i]
		md, err := e.exportDocument(doc, target)
		if err != nil {
			return err
		}
		m.Documents = append(m.Documents, *md)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(target, manifestName), data, 0600); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	logger.Info("exported %d documents to %s", len(m.Documents), target)
	return nil
}

func (e *Exporter) exportDocument(doc *domain.Document, target string) (*manifestDocument, error) {
	if doc.Filename == nil {
		return nil, fmt.Errorf("document %d has no stored original", doc.ID)
	}

	md := &manifestDocument{
		ID:              doc.ID,
		Title:           doc.Title,
		Content:         doc.Content,
		CorrespondentID: doc.CorrespondentID,
		DocumentTypeID:  doc.DocumentTypeID,
		TagIDs:          doc.TagIDs,
		Created:         doc.Created,
		Added:           doc.Added,
		MIMEType:        doc.MIMEType,
		StorageType:     string(doc.StorageType),
		Checksum:        doc.Checksum,
		ArchiveChecksum: doc.ArchiveChecksum,
	}

	md.Original = fmt.Sprintf("%07d-original.%s", doc.ID, doc.FileExtension())
	if err := copyInto(e.files.OriginalPath(doc), filepath.Join(target, md.Original)); err != nil {
		return nil, fmt.Errorf("exporting original of document %d: %w", doc.ID, err)
	}

	if doc.ArchiveFilename != nil {
		md.Archive = fmt.Sprintf("%07d-archive.pdf", doc.ID)
		if err := copyInto(e.files.ArchivePath(doc), filepath.Join(target, md.Archive)); err != nil {
			return nil, fmt.Errorf("exporting rendition of document %d: %w", doc.ID, err)
		}
	}

	thumb := e.files.ThumbnailPath(doc)
	if _, err := os.Stat(thumb); err == nil {
		md.Thumbnail = fmt.Sprintf("%07d-thumbnail.png", doc.ID)
		if err := copyInto(thumb, filepath.Join(target, md.Thumbnail)); err != nil {
			return nil, fmt.Errorf("exporting thumbnail of document %d: %w", doc.ID, err)
		}
	}
	return md, nil
}

// Import restores an exported directory. Entity ids are remapped, so an
// import can land on top of existing data without collisions.
func (e *Exporter) Import(ctx context.Context, source string) error {
	data, err := os.ReadFile(filepath.Join(source, manifestName))
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version != manifestVersion {
		return fmt.Errorf("unsupported manifest version %d", m.Version)
	}

	correspondentIDs := map[int64]int64{}
	for _, c := range m.Correspondents {
		created, err := e.meta.GetOrCreateCorrespondent(ctx, c.Name)
		if err != nil {
			return err
		}
		created.Algorithm = domain.MatchingAlgorithm(c.Algorithm)
		created.Expression = c.Expression
		if err := e.meta.SaveCorrespondent(ctx, created); err != nil {
			return err
		}
		correspondentIDs[c.ID] = created.ID
	}

	typeIDs := map[int64]int64{}
	for _, dt := range m.DocumentTypes {
		created := &domain.DocumentType{Name: dt.Name}
		created.Algorithm = domain.MatchingAlgorithm(dt.Algorithm)
		created.Expression = dt.Expression
		if err := e.meta.SaveDocumentType(ctx, created); err != nil {
			return err
		}
		typeIDs[dt.ID] = created.ID
	}

	tagIDs := map[int64]int64{}
	for _, t := range m.Tags {
		created, err := e.meta.GetOrCreateTag(ctx, t.Name)
		if err != nil {
			return err
		}
		created.Algorithm = domain.MatchingAlgorithm(t.Algorithm)
		created.Expression = t.Expression
		created.Color = t.Color
		created.IsInboxTag = t.IsInboxTag
		if err := e.meta.SaveTag(ctx, created); err != nil {
			return err
		}
		tagIDs[t.ID] = created.ID
	}

	writer, err := e.index.BeginBatch(ctx)
	if err != nil {
		return err
	}
	defer writer.Close() //nolint:errcheck

	for _, md := range m.Documents {
		if err := e.importDocument(ctx, source, md, correspondentIDs, typeIDs, tagIDs, writer); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	logger.Info("imported %d documents from %s", len(m.Documents), source)
	return nil
}

func (e *Exporter) importDocument(
	ctx context.Context,
	source string,
	md manifestDocument,
	correspondentIDs, typeIDs, tagIDs map[int64]int64,
	writer driven.IndexWriter,
) error {
	originalSrc := filepath.Join(source, md.Original)
	sum, err := fileMD5(originalSrc)
	if err != nil {
		return fmt.Errorf("reading exported original %s: %w", md.Original, err)
	}
	if sum != md.Checksum {
		return fmt.Errorf("checksum mismatch of exported file %s", md.Original)
	}

	archiveSrc := ""
	if md.Archive != "" {
		archiveSrc = filepath.Join(source, md.Archive)
		sum, err := fileMD5(archiveSrc)
		if err != nil {
			return fmt.Errorf("reading exported rendition %s: %w", md.Archive, err)
		}
		if sum != md.ArchiveChecksum {
			return fmt.Errorf("checksum mismatch of exported rendition %s", md.Archive)
		}
	}

	doc := &domain.Document{
		Title:           md.Title,
		Content:         md.Content,
		Created:         md.Created,
		Added:           md.Added,
		MIMEType:        md.MIMEType,
		StorageType:     domain.StorageType(md.StorageType),
		Checksum:        md.Checksum,
		ArchiveChecksum: md.ArchiveChecksum,
	}
	if md.CorrespondentID != nil {
		if id, ok := correspondentIDs[*md.CorrespondentID]; ok {
			doc.CorrespondentID = &id
		}
	}
	if md.DocumentTypeID != nil {
		if id, ok := typeIDs[*md.DocumentTypeID]; ok {
			doc.DocumentTypeID = &id
		}
	}
	for _, old := range md.TagIDs {
		if id, ok := tagIDs[old]; ok {
			doc.TagIDs = append(doc.TagIDs, id)
		}
	}

	if err := e.docs.CreateDocument(ctx, doc); err != nil {
		return fmt.Errorf("restoring document %q: %w", md.Title, err)
	}

	thumbSrc := ""
	if md.Thumbnail != "" {
		thumbSrc = filepath.Join(source, md.Thumbnail)
	}
	if err := e.files.Place(ctx, doc, originalSrc, archiveSrc, thumbSrc); err != nil {
		return fmt.Errorf("placing restored document %q: %w", md.Title, err)
	}

	entry, err := indexEntryFor(ctx, e.meta, doc)
	if err != nil {
		return err
	}
	return writer.Upsert(entry)
}
