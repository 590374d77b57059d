package fts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

func joinSpans(spans []domain.HighlightSpan) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestHighlight(t *testing.T) {
	t.Run("marks matched terms", func(t *testing.T) {
		content := "The quick brown fox jumps over the lazy dog near the river bank"
		frags := highlight(content, []string{"fox"})
		require.Len(t, frags, 1)

		var highlighted []string
		for _, span := range frags[0] {
			if span.Highlight {
				highlighted = append(highlighted, span.Text)
			}
		}
		assert.Equal(t, []string{"fox"}, highlighted)
		assert.Contains(t, joinSpans(frags[0]), "quick brown fox jumps")
	})

	t.Run("nearby matches share one highlighted span", func(t *testing.T) {
		content := "pay the water and gas bill before friday"
		frags := highlight(content, []string{"water", "gas"})
		require.Len(t, frags, 1)

		var highlighted []string
		for _, span := range frags[0] {
			if span.Highlight {
				highlighted = append(highlighted, span.Text)
			}
		}
		// "water" and "gas" are 5 characters apart, close enough to fold.
		assert.Equal(t, []string{"water and gas"}, highlighted)
	})

	t.Run("distant matches get separate fragments", func(t *testing.T) {
		filler := strings.Repeat("lorem ipsum dolor sit amet ", 20)
		content := "invoice at the start. " + filler + " and invoice at the end"
		frags := highlight(content, []string{"invoice"})
		assert.Len(t, frags, 2)
	})

	t.Run("respects word boundaries", func(t *testing.T) {
		frags := highlight("the waterfall is loud", []string{"water"})
		assert.Empty(t, frags)
	})

	t.Run("no match yields no fragments", func(t *testing.T) {
		frags := highlight("completely unrelated text", []string{"invoice"})
		assert.Empty(t, frags)
	})

	t.Run("fragment count is capped", func(t *testing.T) {
		filler := strings.Repeat("x ", 100)
		parts := make([]string, 6)
		for i := range parts {
			parts[i] = "needle" + filler
		}
		frags := highlight(strings.Join(parts, " "), []string{"needle"})
		assert.Len(t, frags, maxFragments)
	})
}
