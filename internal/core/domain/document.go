package domain

import (
	"fmt"
	"time"
)

// StorageType describes how the original file is stored on disk.
type StorageType string

const (
	// StorageTypeUnencrypted is a plain file under the originals root.
	StorageTypeUnencrypted StorageType = "unencrypted"

	// StorageTypeGPG is an encrypted-at-rest file. Filenames carry a
	// .gpg suffix so the two forms can never collide.
	StorageTypeGPG StorageType = "gpg"
)

// Document represents an archived document after consumption.
// It is the canonical record; the search index is a rebuildable
// projection of it and must never be treated as the source of truth.
type Document struct {
	// ID is the stable numeric identifier, monotonically assigned by the
	// record store and never reused.
	ID int64

	// Title is the human-readable title.
	Title string

	// Content is the extracted plain text. May be empty when the parser
	// could not produce text (the sanity checker warns about this).
	Content string

	// CorrespondentID references the sender entity, nil when unknown.
	CorrespondentID *int64

	// DocumentTypeID references the document type, nil when unknown.
	DocumentTypeID *int64

	// TagIDs are the attached tags, order not significant.
	TagIDs []int64

	// Created is the user-meaningful document date. Defaults to the
	// ingestion time when nothing better is known.
	Created time.Time

	// Added is the ingestion time. Immutable after consumption.
	Added time.Time

	// Modified is bumped on every record update.
	Modified time.Time

	// MIMEType is resolved by content inspection during consumption.
	MIMEType string

	// StorageType selects plain or encrypted-at-rest storage.
	StorageType StorageType

	// Checksum is the MD5 hex digest of the stored original.
	Checksum string

	// ArchiveChecksum is the MD5 hex digest of the archival rendition.
	// Empty means no archival rendition exists; when set, ArchiveFilename
	// must point at the rendition file.
	ArchiveChecksum string

	// Filename is the path of the original relative to the originals
	// root. Nil until placement is finalised by the consumer.
	Filename *string

	// ArchiveFilename is the path of the archival rendition relative to
	// the archive root. Nil when no rendition exists.
	ArchiveFilename *string
}

// HasArchiveVersion reports whether an archival rendition is recorded.
// The archive checksum is the authoritative signal, since documents
// without a rendition carry neither checksum nor filename.
func (d *Document) HasArchiveVersion() bool {
	return d.ArchiveChecksum != ""
}

// FileExtension returns the extension for the document's MIME type,
// without the leading dot. Unknown types map to "bin".
func (d *Document) FileExtension() string {
	switch d.MIMEType {
	case "application/pdf":
		return "pdf"
	case "text/plain":
		return "txt"
	case "text/csv":
		return "csv"
	case "text/markdown":
		return "md"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/tiff":
		return "tiff"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}

// String identifies the document in log output.
func (d *Document) String() string {
	created := d.Created.Format("2006-01-02")
	if d.Title != "" {
		return fmt.Sprintf("%s %s", created, d.Title)
	}
	return fmt.Sprintf("%s #%d", created, d.ID)
}
