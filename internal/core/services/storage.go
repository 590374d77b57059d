package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

// Subdirectories of the media root.
const (
	originalsDir  = "originals"
	archiveDir    = "archive"
	thumbnailsDir = "thumbnails"
	mediaLockName = "media.lock"
)

// FileManager places, renames and removes document files under the
// media root. All mutations run under a cross-process file lock so a
// concurrent consumer and renamer cannot interleave placements.
type FileManager struct {
	root   string
	format string
	meta   driven.MetadataStore
	docs   driven.DocumentStore
	lock   *flock.Flock
}

// NewFileManager creates a file manager for the media root. format is
// the placement template, empty for flat storage.
func NewFileManager(root, format string, meta driven.MetadataStore, docs driven.DocumentStore) *FileManager {
	return &FileManager{
		root:   root,
		format: format,
		meta:   meta,
		docs:   docs,
		lock:   flock.New(filepath.Join(root, mediaLockName)),
	}
}

// AsRenameObserver returns an observer that keeps filenames consistent
// with document metadata after every save.
func (f *FileManager) AsRenameObserver() driven.DocumentObserver {
	return driven.DocumentObserverFunc(f.renameToMatchMetadata)
}

// OriginalPath resolves the absolute path of the stored original.
func (f *FileManager) OriginalPath(doc *domain.Document) string {
	if doc.Filename == nil {
		return ""
	}
	return filepath.Join(f.root, originalsDir, *doc.Filename)
}

// ArchivePath resolves the absolute path of the archival rendition.
func (f *FileManager) ArchivePath(doc *domain.Document) string {
	if doc.ArchiveFilename == nil {
		return ""
	}
	return filepath.Join(f.root, archiveDir, *doc.ArchiveFilename)
}

// ThumbnailPath resolves the absolute path of the thumbnail.
func (f *FileManager) ThumbnailPath(doc *domain.Document) string {
	return filepath.Join(f.root, thumbnailsDir, fmt.Sprintf("%07d.png", doc.ID))
}

// GenerateFilename renders the placement template into the filename
// stem and appends the zero-padded document id, so names stay unique
// even when the template collides. Without a template the name is the
// bare id.
func (f *FileManager) GenerateFilename(ctx context.Context, doc *domain.Document) (string, error) {
	stem, err := f.renderTemplate(ctx, doc)
	if err != nil {
		return "", err
	}

	var name string
	if stem == "" {
		name = fmt.Sprintf("%07d.%s", doc.ID, doc.FileExtension())
	} else {
		name = fmt.Sprintf("%s-%07d.%s", stem, doc.ID, doc.FileExtension())
	}
	if doc.StorageType == domain.StorageTypeGPG {
		name += ".gpg"
	}
	return name, nil
}

// tagKeyPattern matches keyed tag access in the placement template,
// e.g. {tags[city]} or {tags[0]}.
var tagKeyPattern = regexp.MustCompile(`\{tags\[([^\[\]{}]*)\]\}`)

// renderTemplate expands the placeholders of the placement template.
// Empty values render as "none" so paths stay well-formed.
func (f *FileManager) renderTemplate(ctx context.Context, doc *domain.Document) (string, error) {
	if f.format == "" {
		return "", nil
	}

	correspondent := "none"
	if doc.CorrespondentID != nil {
		c, err := f.meta.GetCorrespondent(ctx, *doc.CorrespondentID)
		if err != nil {
			return "", fmt.Errorf("resolving correspondent: %w", err)
		}
		if slug := domain.Slugify(c.Name); slug != "" {
			correspondent = slug
		}
	}

	docType := "none"
	if doc.DocumentTypeID != nil {
		dt, err := f.meta.GetDocumentType(ctx, *doc.DocumentTypeID)
		if err != nil {
			return "", fmt.Errorf("resolving document type: %w", err)
		}
		if slug := domain.Slugify(dt.Name); slug != "" {
			docType = slug
		}
	}

	var tagList []string
	for _, id := range doc.TagIDs {
		tag, err := f.meta.GetTag(ctx, id)
		if err != nil {
			return "", fmt.Errorf("resolving tag: %w", err)
		}
		tagList = append(tagList, tag.Name)
	}
	tags := "none"
	var slugs []string
	for _, name := range tagList {
		if slug := domain.Slugify(name); slug != "" {
			slugs = append(slugs, slug)
		}
	}
	if len(slugs) > 0 {
		tags = strings.Join(slugs, ",")
	}

	title := domain.Slugify(doc.Title)
	if title == "" {
		title = "none"
	}

	// Keyed tag access resolves against the delimiter-split mapping
	// before the plain placeholders are substituted.
	tagDict := tagDictionary(tagList)
	format := tagKeyPattern.ReplaceAllStringFunc(f.format, func(m string) string {
		key := tagKeyPattern.FindStringSubmatch(m)[1]
		if v := tagDict[key]; v != "" {
			return v
		}
		return "none"
	})

	replacer := strings.NewReplacer(
		"{correspondent}", correspondent,
		"{title}", title,
		"{type}", docType,
		"{tags}", tags,
		"{created}", doc.Created.Format("2006-01-02"),
		"{created_year}", doc.Created.Format("2006"),
		"{created_month}", doc.Created.Format("01"),
		"{created_day}", doc.Created.Format("02"),
		"{added}", doc.Added.Format("2006-01-02"),
		"{added_year}", doc.Added.Format("2006"),
	)
	stem := replacer.Replace(format)

	// Collapse artifacts of empty segments.
	stem = strings.Trim(filepath.Clean(stem), string(filepath.Separator))
	if stem == "." {
		stem = ""
	}
	if strings.Contains(stem, "..") {
		return "", fmt.Errorf("placement template escapes the media root: %q", f.format)
	}
	return stem, nil
}

// tagDictionary indexes slugged tag names by their list position and,
// for names containing an underscore or hyphen, by the slugged prefix
// before the first delimiter ("city_berlin" yields city -> berlin).
func tagDictionary(names []string) map[string]string {
	dict := map[string]string{}
	for i, name := range names {
		dict[strconv.Itoa(i)] = domain.Slugify(name)
		delim := strings.Index(name, "_")
		if delim == -1 {
			delim = strings.Index(name, "-")
		}
		if delim == -1 {
			continue
		}
		dict[domain.Slugify(name[:delim])] = domain.Slugify(name[delim+1:])
	}
	return dict
}

// Place moves the consumed files to their final locations and records
// the filenames. It is the last consumption step before hook execution.
func (f *FileManager) Place(ctx context.Context, doc *domain.Document, sourcePath, archiveSource, thumbnailSource string) error {
	if err := f.lockMedia(); err != nil {
		return err
	}
	defer f.unlockMedia()

	filename, err := f.GenerateFilename(ctx, doc)
	if err != nil {
		return err
	}

	original := filepath.Join(f.root, originalsDir, filename)
	if err := copyInto(sourcePath, original); err != nil {
		return fmt.Errorf("storing original: %w", err)
	}
	doc.Filename = &filename

	if archiveSource != "" {
		archiveName := archiveFilenameFor(filename)
		target := filepath.Join(f.root, archiveDir, archiveName)
		if err := copyInto(archiveSource, target); err != nil {
			return fmt.Errorf("storing archival rendition: %w", err)
		}
		doc.ArchiveFilename = &archiveName
	}

	if thumbnailSource != "" {
		if err := copyInto(thumbnailSource, f.ThumbnailPath(doc)); err != nil {
			return fmt.Errorf("storing thumbnail: %w", err)
		}
	}

	return f.docs.UpdateFilenames(ctx, doc.ID, doc.Filename, doc.ArchiveFilename)
}

// Remove deletes the document's files and prunes empty directories.
func (f *FileManager) Remove(doc *domain.Document) error {
	if err := f.lockMedia(); err != nil {
		return err
	}
	defer f.unlockMedia()

	for _, path := range []string{f.OriginalPath(doc), f.ArchivePath(doc), f.ThumbnailPath(doc)} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
		f.pruneEmptyDirs(filepath.Dir(path))
	}
	return nil
}

// renameToMatchMetadata moves the stored files when the generated
// filename changed, writing the new names through the narrow
// UpdateFilenames path so this observer cannot retrigger itself.
func (f *FileManager) renameToMatchMetadata(ctx context.Context, doc *domain.Document) error {
	if doc.Filename == nil {
		// Not placed yet; the consumer will pick the final name.
		return nil
	}

	if err := f.lockMedia(); err != nil {
		return err
	}
	defer f.unlockMedia()

	want, err := f.GenerateFilename(ctx, doc)
	if err != nil {
		return err
	}
	if want == *doc.Filename {
		return nil
	}

	oldOriginal := f.OriginalPath(doc)
	newOriginal := filepath.Join(f.root, originalsDir, want)

	var oldArchive, newArchive string
	var wantArchive string
	if doc.ArchiveFilename != nil {
		oldArchive = f.ArchivePath(doc)
		wantArchive = archiveFilenameFor(want)
		newArchive = filepath.Join(f.root, archiveDir, wantArchive)
	}

	// Two-phase move: if the second rename fails, revert the first so
	// record and disk never disagree about both files at once.
	if err := moveFile(oldOriginal, newOriginal); err != nil {
		return fmt.Errorf("renaming original: %w", err)
	}
	if oldArchive != "" {
		if err := moveFile(oldArchive, newArchive); err != nil {
			if revertErr := moveFile(newOriginal, oldOriginal); revertErr != nil {
				logger.Error("revert after failed archive rename also failed: %v", revertErr)
			}
			return fmt.Errorf("renaming archival rendition: %w", err)
		}
	}

	oldDirs := []string{filepath.Dir(oldOriginal)}
	if oldArchive != "" {
		oldDirs = append(oldDirs, filepath.Dir(oldArchive))
	}

	oldName := *doc.Filename
	var oldArchiveName string
	if doc.ArchiveFilename != nil {
		oldArchiveName = *doc.ArchiveFilename
	}

	doc.Filename = &want
	if doc.ArchiveFilename != nil {
		doc.ArchiveFilename = &wantArchive
	}
	if err := f.docs.UpdateFilenames(ctx, doc.ID, doc.Filename, doc.ArchiveFilename); err != nil {
		// The record still holds the old names; move the files back so
		// disk and record stay consistent.
		if revertErr := moveFile(newOriginal, oldOriginal); revertErr != nil {
			logger.Error("rollback of original after failed filename update: %v", revertErr)
		}
		if oldArchive != "" {
			if revertErr := moveFile(newArchive, oldArchive); revertErr != nil {
				logger.Error("rollback of rendition after failed filename update: %v", revertErr)
			}
		}
		doc.Filename = &oldName
		if doc.ArchiveFilename != nil {
			doc.ArchiveFilename = &oldArchiveName
		}
		f.pruneEmptyDirs(filepath.Dir(newOriginal))
		if newArchive != "" {
			f.pruneEmptyDirs(filepath.Dir(newArchive))
		}
		return err
	}

	for _, dir := range oldDirs {
		f.pruneEmptyDirs(dir)
	}
	logger.Debug("renamed document %d to %s", doc.ID, want)
	return nil
}

func (f *FileManager) lockMedia() error {
	if err := os.MkdirAll(f.root, 0700); err != nil {
		return fmt.Errorf("creating media root: %w", err)
	}
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("locking media root: %w", err)
	}
	return nil
}

func (f *FileManager) unlockMedia() {
	if err := f.lock.Unlock(); err != nil {
		logger.Warn("unlocking media root: %v", err)
	}
}

// pruneEmptyDirs removes now-empty directories up to the media root.
// Failures are non-fatal; a leftover directory is cosmetic.
func (f *FileManager) pruneEmptyDirs(dir string) {
	for strings.HasPrefix(dir, f.root) && dir != f.root {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// archiveFilenameFor derives the rendition name from the original's
// generated name. Renditions are always PDF.
func archiveFilenameFor(filename string) string {
	filename = strings.TrimSuffix(filename, ".gpg")
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + ".pdf"
}

func copyInto(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// moveFile renames across directories, creating the target directory.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return err
	}
	return os.Rename(src, dst)
}
