package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// defaultAutocompleteLimit applies when the caller passes zero.
const defaultAutocompleteLimit = 10

// SearchService answers queries against the full-text index.
type SearchService struct {
	docs  driven.DocumentStore
	index driven.SearchIndex
}

// NewSearchService creates a new search service.
func NewSearchService(docs driven.DocumentStore, index driven.SearchIndex) *SearchService {
	return &SearchService{docs: docs, index: index}
}

// Search parses the free-text query and returns the requested page.
func (s *SearchService) Search(ctx context.Context, query, page string) (*domain.SearchPage, error) {
	logger.Section("Search")
	logger.Debug("query: %q page: %q", query, page)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("empty query, returning no results")
		return &domain.SearchPage{Page: 1}, nil
	}

	return s.index.Search(ctx, driven.Query{
		Text: query,
		Page: parsePage(page),
	})
}

// MoreLike returns documents similar to the given one.
func (s *SearchService) MoreLike(ctx context.Context, documentID int64, query, page string) (*domain.SearchPage, error) {
	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return s.index.Search(ctx, driven.Query{
		Text:            strings.TrimSpace(query),
		MoreLikeID:      doc.ID,
		MoreLikeContent: doc.Content,
		Page:            parsePage(page),
	})
}

// Autocomplete suggests index terms for a prefix.
func (s *SearchService) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit < 0 {
		return nil, domain.ErrInvalidInput
	}
	if limit == 0 {
		limit = defaultAutocompleteLimit
	}
	return s.index.Autocomplete(ctx, prefix, limit)
}

// parsePage interprets raw user input as a 1-based page number.
// Anything non-numeric, zero or negative falls back to page 1.
func parsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
