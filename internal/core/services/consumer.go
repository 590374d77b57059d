package services

import (
	"context"
	"crypto/md5" //nolint:gosec // duplicate detection, not security
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

// Ensure ConsumerService implements the interface.
var _ driving.Consumer = (*ConsumerService)(nil)

// ConsumerService runs the consumption pipeline: intake file in,
// parsed, classified, placed and indexed document out.
type ConsumerService struct {
	docs       driven.DocumentStore
	meta       driven.MetadataStore
	registry   driven.ParserRegistry
	index      driven.SearchIndex
	files      *FileManager
	matcher    *Matcher
	classifier *Classifier
	hooks      driven.HookRunner
	rules      *domain.FilenameRules

	inboxTags        []string
	deleteDuplicates bool
}

// ConsumerConfig wires the consumer's collaborators.
type ConsumerConfig struct {
	Docs       driven.DocumentStore
	Meta       driven.MetadataStore
	Registry   driven.ParserRegistry
	Index      driven.SearchIndex
	Files      *FileManager
	Matcher    *Matcher
	Classifier *Classifier
	Hooks      driven.HookRunner

	// FilenameRules are the compiled rewrite rules, may be nil.
	FilenameRules *domain.FilenameRules

	// InboxTags are applied to every consumed document without a tag
	// override.
	InboxTags []string

	// DeleteDuplicates removes a duplicate source file instead of
	// leaving it in the consumption directory.
	DeleteDuplicates bool
}

// NewConsumerService creates the consumer.
func NewConsumerService(cfg ConsumerConfig) *ConsumerService {
	return &ConsumerService{
		docs:             cfg.Docs,
		meta:             cfg.Meta,
		registry:         cfg.Registry,
		index:            cfg.Index,
		files:            cfg.Files,
		matcher:          cfg.Matcher,
		classifier:       cfg.Classifier,
		hooks:            cfg.Hooks,
		rules:            cfg.FilenameRules,
		inboxTags:        cfg.InboxTags,
		deleteDuplicates: cfg.DeleteDuplicates,
	}
}

// Consume runs the pipeline for one intake file.
func (s *ConsumerService) Consume(ctx context.Context, path string, overrides driving.ConsumeOverrides) (*domain.Document, error) {
	logger.Section("Consume")
	logger.Debug("source: %s", path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.NewConsumeError(domain.KindInput, err, "cannot read %s", path)
	}
	if info.IsDir() {
		return nil, domain.NewConsumeError(domain.KindInput, nil, "%s is not a file", path)
	}

	if err := s.validateOverrides(ctx, overrides); err != nil {
		return nil, err
	}

	// A watcher process picks up models retrained elsewhere.
	if s.classifier != nil {
		if err := s.classifier.Reload(); err != nil {
			logger.Warn("reloading classifier model: %v", err)
		}
	}

	if s.hooks != nil {
		if err := s.hooks.RunPreConsume(ctx, path); err != nil {
			return nil, domain.NewConsumeError(domain.KindHook, err, "pre-consume script failed")
		}
	}

	checksum, err := fileMD5(path)
	if err != nil {
		return nil, domain.NewConsumeError(domain.KindFilesystem, err, "hashing %s", path)
	}
	if existing, err := s.docs.FindByChecksum(ctx, checksum); err == nil {
		if s.deleteDuplicates {
			if err := os.Remove(path); err != nil {
				logger.Warn("removing duplicate source: %v", err)
			}
		}
		return nil, domain.NewConsumeError(domain.KindDuplicate, nil,
			"%s is a duplicate of document %d", filepath.Base(path), existing.ID)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewConsumeError(domain.KindFilesystem, err, "checking for duplicates")
	}

	mime, err := detectMIME(path)
	if err != nil {
		return nil, domain.NewConsumeError(domain.KindInput, err, "detecting type of %s", path)
	}
	logger.Debug("mime type: %s", mime)

	parser, ok := s.registry.ParserFor(mime)
	if !ok {
		return nil, domain.NewConsumeError(domain.KindUnsupported, nil,
			"no parser for mime type %s", mime)
	}
	defer func() {
		if err := parser.Cleanup(); err != nil {
			logger.Warn("parser cleanup: %v", err)
		}
	}()

	result, err := parser.Parse(ctx, path, mime)
	if err != nil {
		return nil, domain.NewConsumeError(domain.KindParseFailure, err, "parsing %s", filepath.Base(path))
	}

	doc, err := s.buildDocument(ctx, path, info, mime, checksum, result, overrides)
	if err != nil {
		return nil, err
	}

	if result.ArchivePath != "" {
		archiveSum, err := fileMD5(result.ArchivePath)
		if err != nil {
			return nil, domain.NewConsumeError(domain.KindFilesystem, err, "hashing archival rendition")
		}
		doc.ArchiveChecksum = archiveSum
	}

	if err := s.docs.CreateDocument(ctx, doc); err != nil {
		return nil, domain.NewConsumeError(domain.KindFilesystem, err, "storing document record")
	}

	if err := s.files.Place(ctx, doc, path, result.ArchivePath, result.ThumbnailPath); err != nil {
		// Keep record and disk consistent: a record without files is a
		// sanity error, so undo the insert.
		if delErr := s.docs.DeleteDocument(ctx, doc.ID); delErr != nil {
			logger.Error("removing record after failed placement: %v", delErr)
		}
		return nil, domain.NewConsumeError(domain.KindFilesystem, err, "placing files")
	}

	entry, err := indexEntryFor(ctx, s.meta, doc)
	if err != nil {
		return nil, domain.NewConsumeError(domain.KindFilesystem, err, "building index entry")
	}
	if err := s.index.Upsert(ctx, entry); err != nil {
		return nil, domain.NewConsumeError(domain.KindFilesystem, err, "indexing document")
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("removing consumed source %s: %v", path, err)
	}

	if s.hooks != nil {
		if err := s.runPostConsume(ctx, doc); err != nil {
			return doc, domain.NewConsumeError(domain.KindHook, err, "post-consume script failed")
		}
	}

	logger.Info("consumed %s as document %d", filepath.Base(path), doc.ID)
	return doc, nil
}

// validateOverrides rejects override ids that reference nothing.
func (s *ConsumerService) validateOverrides(ctx context.Context, o driving.ConsumeOverrides) error {
	if o.CorrespondentID != nil {
		if _, err := s.meta.GetCorrespondent(ctx, *o.CorrespondentID); err != nil {
			return domain.NewConsumeError(domain.KindValidation, err,
				"override correspondent %d does not exist", *o.CorrespondentID)
		}
	}
	if o.DocumentTypeID != nil {
		if _, err := s.meta.GetDocumentType(ctx, *o.DocumentTypeID); err != nil {
			return domain.NewConsumeError(domain.KindValidation, err,
				"override document type %d does not exist", *o.DocumentTypeID)
		}
	}
	for _, id := range o.TagIDs {
		if _, err := s.meta.GetTag(ctx, id); err != nil {
			return domain.NewConsumeError(domain.KindValidation, err,
				"override tag %d does not exist", id)
		}
	}
	return nil
}

// buildDocument assembles the record from overrides, filename metadata,
// parse results and matching, in that order of precedence.
func (s *ConsumerService) buildDocument(
	ctx context.Context,
	path string,
	info os.FileInfo,
	mime, checksum string,
	result *driven.ParseResult,
	overrides driving.ConsumeOverrides,
) (*domain.Document, error) {
	intakeName := filepath.Base(path)
	if overrides.Filename != "" {
		intakeName = overrides.Filename
	}
	bare := strings.TrimSuffix(intakeName, filepath.Ext(intakeName))
	parsed := domain.ParseFilename(bare, s.rules)

	doc := &domain.Document{
		Content:     result.Text,
		MIMEType:    mime,
		StorageType: domain.StorageTypeUnencrypted,
		Checksum:    checksum,
		Added:       time.Now().UTC(),
	}

	// Title: override, then filename, then the bare intake name.
	switch {
	case overrides.Title != nil:
		doc.Title = *overrides.Title
	case parsed.Title != "":
		doc.Title = parsed.Title
	default:
		doc.Title = bare
	}

	// Created: override, filename date, content date, file mtime.
	switch {
	case overrides.Created != nil:
		doc.Created = overrides.Created.UTC()
	case parsed.Created != nil:
		doc.Created = parsed.Created.UTC()
	case result.Created != nil:
		doc.Created = time.Date(result.Created.Year, time.Month(result.Created.Month),
			result.Created.Day, 0, 0, 0, 0, time.UTC)
	default:
		doc.Created = info.ModTime().UTC()
	}

	if err := s.assignCorrespondent(ctx, doc, parsed, overrides); err != nil {
		return nil, err
	}
	if err := s.assignDocumentType(ctx, doc, overrides); err != nil {
		return nil, err
	}
	if err := s.assignTags(ctx, doc, parsed, overrides); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ConsumerService) assignCorrespondent(
	ctx context.Context, doc *domain.Document, parsed domain.FilenameInfo, overrides driving.ConsumeOverrides,
) error {
	if overrides.CorrespondentID != nil {
		doc.CorrespondentID = overrides.CorrespondentID
		return nil
	}
	if parsed.Correspondent != nil && *parsed.Correspondent != "" {
		c, err := s.meta.GetOrCreateCorrespondent(ctx, *parsed.Correspondent)
		if err != nil {
			return domain.NewConsumeError(domain.KindFilesystem, err, "creating correspondent")
		}
		doc.CorrespondentID = &c.ID
		return nil
	}
	matched, err := s.matcher.MatchCorrespondents(ctx, doc.Content)
	if err != nil {
		return domain.NewConsumeError(domain.KindFilesystem, err, "matching correspondents")
	}
	if len(matched) == 1 {
		doc.CorrespondentID = &matched[0].ID
	} else if len(matched) > 1 {
		logger.Debug("%d correspondents match, assigning none", len(matched))
	}
	return nil
}

func (s *ConsumerService) assignDocumentType(
	ctx context.Context, doc *domain.Document, overrides driving.ConsumeOverrides,
) error {
	if overrides.DocumentTypeID != nil {
		doc.DocumentTypeID = overrides.DocumentTypeID
		return nil
	}
	matched, err := s.matcher.MatchDocumentTypes(ctx, doc.Content)
	if err != nil {
		return domain.NewConsumeError(domain.KindFilesystem, err, "matching document types")
	}
	if len(matched) == 1 {
		doc.DocumentTypeID = &matched[0].ID
	} else if len(matched) > 1 {
		logger.Debug("%d document types match, assigning none", len(matched))
	}
	return nil
}

func (s *ConsumerService) assignTags(
	ctx context.Context, doc *domain.Document, parsed domain.FilenameInfo, overrides driving.ConsumeOverrides,
) error {
	if overrides.TagIDs != nil {
		doc.TagIDs = overrides.TagIDs
		return nil
	}

	tagSet := map[int64]bool{}

	for _, name := range parsed.Tags {
		tag, err := s.meta.GetOrCreateTag(ctx, name)
		if err != nil {
			return domain.NewConsumeError(domain.KindFilesystem, err, "creating tag %s", name)
		}
		tagSet[tag.ID] = true
	}

	matched, err := s.matcher.MatchTags(ctx, doc.Content)
	if err != nil {
		return domain.NewConsumeError(domain.KindFilesystem, err, "matching tags")
	}
	for _, t := range matched {
		tagSet[t.ID] = true
	}

	for _, name := range s.inboxTags {
		tag, err := s.meta.GetOrCreateTag(ctx, name)
		if err != nil {
			return domain.NewConsumeError(domain.KindFilesystem, err, "creating inbox tag %s", name)
		}
		if !tag.IsInboxTag {
			tag.IsInboxTag = true
			if err := s.meta.SaveTag(ctx, tag); err != nil {
				return domain.NewConsumeError(domain.KindFilesystem, err, "flagging inbox tag %s", name)
			}
		}
		tagSet[tag.ID] = true
	}

	for id := range tagSet {
		doc.TagIDs = append(doc.TagIDs, id)
	}
	return nil
}

func (s *ConsumerService) runPostConsume(ctx context.Context, doc *domain.Document) error {
	args := driven.PostConsumeArgs{
		DocumentID:   doc.ID,
		Filename:     s.files.OriginalPath(doc),
		Thumbnail:    s.files.ThumbnailPath(doc),
		DownloadURL:  "",
		ThumbnailURL: "",
	}
	if doc.CorrespondentID != nil {
		c, err := s.meta.GetCorrespondent(ctx, *doc.CorrespondentID)
		if err == nil {
			args.Correspondent = c.Name
		}
	}
	for _, id := range doc.TagIDs {
		if tag, err := s.meta.GetTag(ctx, id); err == nil {
			args.TagNames = append(args.TagNames, tag.Name)
		}
	}
	return s.hooks.RunPostConsume(ctx, args)
}

// detectMIME inspects file content, ignoring the extension.
func detectMIME(path string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	mime := m.String()
	// Strip parameters like "; charset=utf-8".
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime, nil
}

func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New() //nolint:gosec // duplicate detection, not security
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
