package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

func TestSearch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")
	service := NewSearchService(env.docs, env.index)

	for _, title := range []string{"Water Bill", "Gas Bill", "Insurance Policy"} {
		doc := &domain.Document{Title: title, Content: "archived " + title}
		require.NoError(t, env.docs.CreateDocument(ctx, doc))
		entry, err := indexEntryFor(ctx, env.meta, doc)
		require.NoError(t, err)
		require.NoError(t, env.index.Upsert(ctx, entry))
	}

	t.Run("matching query", func(t *testing.T) {
		page, err := service.Search(ctx, "bill", "1")
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("empty query returns an empty first page", func(t *testing.T) {
		page, err := service.Search(ctx, "   ", "3")
		require.NoError(t, err)
		assert.Empty(t, page.Results)
		assert.Equal(t, 1, page.Page)
	})

	t.Run("garbage page input falls back to page one", func(t *testing.T) {
		page, err := service.Search(ctx, "bill", "not-a-number")
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
	})

	t.Run("more like an unknown document", func(t *testing.T) {
		_, err := service.MoreLike(ctx, 999, "", "1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("more like excludes the source document", func(t *testing.T) {
		page, err := service.MoreLike(ctx, 1, "bill", "1")
		require.NoError(t, err)
		for _, r := range page.Results {
			assert.NotEqual(t, int64(1), r.ID)
		}
	})
}

func TestAutocompleteLimits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")
	service := NewSearchService(env.docs, env.index)

	require.NoError(t, env.index.Upsert(ctx, &domain.IndexEntry{ID: 1, Title: "water waterproof watering"}))

	t.Run("negative limit is invalid", func(t *testing.T) {
		_, err := service.Autocomplete(ctx, "wat", -1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("zero limit uses the default", func(t *testing.T) {
		terms, err := service.Autocomplete(ctx, "wat", 0)
		require.NoError(t, err)
		assert.Len(t, terms, 3)
	})

	t.Run("limit caps the suggestions", func(t *testing.T) {
		terms, err := service.Autocomplete(ctx, "wat", 2)
		require.NoError(t, err)
		assert.Len(t, terms, 2)
	})
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1", 1},
		{"  4 ", 4},
		{"0", 1},
		{"-2", 1},
		{"", 1},
		{"abc", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parsePage(tt.raw), "input %q", tt.raw)
	}
}
