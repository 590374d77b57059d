package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

// ConsumeOverrides are caller-supplied metadata overrides. They take
// precedence over filename-derived values and classifier predictions.
type ConsumeOverrides struct {
	// Filename replaces the on-disk name for filename parsing, e.g. the
	// original upload name of a temp file.
	Filename string

	Title           *string
	CorrespondentID *int64
	DocumentTypeID  *int64
	TagIDs          []int64
	Created         *time.Time
}

// Consumer turns a raw intake file into a stored, parsed, classified
// document record.
type Consumer interface {
	// Consume runs the consumption pipeline for one file and returns
	// the created document. All failures surface as *domain.ConsumeError;
	// duplicates are distinguishable via domain.IsDuplicate.
	Consume(ctx context.Context, path string, overrides ConsumeOverrides) (*domain.Document, error)
}
