package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// SanityChecker cross-validates document records against the files on
// disk. It never mutates anything; findings are reported as messages.
type SanityChecker struct {
	docs  driven.DocumentStore
	files *FileManager
}

// NewSanityChecker creates a sanity checker.
func NewSanityChecker(docs driven.DocumentStore, files *FileManager) *SanityChecker {
	return &SanityChecker{docs: docs, files: files}
}

// Check inspects every record and the media tree. Records with missing
// or altered files are errors; cosmetic findings are warnings.
func (s *SanityChecker) Check(ctx context.Context) ([]domain.SanityMessage, error) {
	docs, err := s.docs.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}

	var messages []domain.SanityMessage
	referenced := map[string]bool{}

	for i := range docs {
		doc := &docs[i]
		messages = append(messages, s.checkDocument(doc, referenced)...)
	}

	orphans, err := s.findOrphans(referenced)
	if err != nil {
		return nil, err
	}
	messages = append(messages, orphans...)
	return messages, nil
}

func (s *SanityChecker) checkDocument(doc *domain.Document, referenced map[string]bool) []domain.SanityMessage {
	var messages []domain.SanityMessage
	report := func(severity domain.SanitySeverity, format string, args ...any) {
		messages = append(messages, domain.SanityMessage{
			Severity:   severity,
			DocumentID: doc.ID,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	if doc.Filename == nil {
		report(domain.SanityError, "document was never placed, no original filename recorded")
	} else {
		original := s.files.OriginalPath(doc)
		referenced[original] = true
		if sum, err := fileMD5(original); err != nil {
			report(domain.SanityError, "original file %s is missing or unreadable", *doc.Filename)
		} else if sum != doc.Checksum {
			report(domain.SanityError, "checksum mismatch of original file %s", *doc.Filename)
		}
	}

	switch {
	case doc.HasArchiveVersion() && doc.ArchiveFilename == nil:
		report(domain.SanityError, "archive checksum recorded but no archive filename")
	case !doc.HasArchiveVersion() && doc.ArchiveFilename != nil:
		report(domain.SanityError, "archive filename recorded but no archive checksum")
	case doc.HasArchiveVersion():
		archive := s.files.ArchivePath(doc)
		referenced[archive] = true
		if sum, err := fileMD5(archive); err != nil {
			report(domain.SanityError, "archival rendition %s is missing or unreadable", *doc.ArchiveFilename)
		} else if sum != doc.ArchiveChecksum {
			report(domain.SanityError, "checksum mismatch of archival rendition %s", *doc.ArchiveFilename)
		}
	}

	thumbnail := s.files.ThumbnailPath(doc)
	referenced[thumbnail] = true
	if _, err := fileMD5(thumbnail); err != nil {
		report(domain.SanityError, "thumbnail is missing or unreadable")
	}

	if doc.Content == "" {
		report(domain.SanityWarning, "document has no extracted text")
	}
	return messages
}

// findOrphans reports files under the media root no record references.
func (s *SanityChecker) findOrphans(referenced map[string]bool) ([]domain.SanityMessage, error) {
	var messages []domain.SanityMessage
	for _, sub := range []string{originalsDir, archiveDir, thumbnailsDir} {
		root := filepath.Join(s.files.root, sub)
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if info.IsDir() || referenced[path] {
				return nil
			}
			messages = append(messages, domain.SanityMessage{
				Severity: domain.SanityWarning,
				Message:  fmt.Sprintf("orphaned file %s is not referenced by any document", path),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return messages, nil
}
