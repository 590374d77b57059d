package driving

import (
	"context"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

// SearchService answers ranked, paginated, highlighted queries over the
// archive.
type SearchService interface {
	// Search parses the free-text query and returns the requested page.
	// page accepts raw user input; non-numeric, zero or negative values
	// fall back to page 1.
	Search(ctx context.Context, query, page string) (*domain.SearchPage, error)

	// MoreLike returns documents similar to the given one.
	MoreLike(ctx context.Context, documentID int64, query, page string) (*domain.SearchPage, error)

	// Autocomplete suggests index terms for a prefix. limit < 0 is
	// rejected as invalid input; 0 selects the default of 10.
	Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error)
}
