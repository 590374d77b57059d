package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	t.Run("correspondent title and tags", func(t *testing.T) {
		info := ParseFilename("Acme - Invoice - Tax,2023", nil)

		require.NotNil(t, info.Correspondent)
		assert.Equal(t, "Acme", *info.Correspondent)
		assert.Equal(t, "Invoice", info.Title)
		assert.Equal(t, []string{"tax", "2023"}, info.Tags)
		assert.Nil(t, info.Created)
	})

	t.Run("bare title", func(t *testing.T) {
		info := ParseFilename("Important Document", nil)

		assert.Nil(t, info.Correspondent)
		assert.Equal(t, "Important Document", info.Title)
		assert.Empty(t, info.Tags)
	})

	t.Run("correspondent and title", func(t *testing.T) {
		info := ParseFilename("City Water - Statement March", nil)

		require.NotNil(t, info.Correspondent)
		assert.Equal(t, "City Water", *info.Correspondent)
		assert.Equal(t, "Statement March", info.Title)
	})

	t.Run("date prefix", func(t *testing.T) {
		info := ParseFilename("2023-04-01 - Acme - Invoice", nil)

		require.NotNil(t, info.Created)
		assert.Equal(t, 2023, info.Created.Year())
		assert.Equal(t, time.April, info.Created.Month())
		require.NotNil(t, info.Correspondent)
		assert.Equal(t, "Acme", *info.Correspondent)
		assert.Equal(t, "Invoice", info.Title)
	})

	t.Run("compact date with time", func(t *testing.T) {
		info := ParseFilename("20230401120000Z - Receipt", nil)

		require.NotNil(t, info.Created)
		assert.Equal(t, 1, info.Created.Day())
		assert.Equal(t, "Receipt", info.Title)
	})

	t.Run("malformed date is ignored", func(t *testing.T) {
		info := ParseFilename("99999999Z - Receipt", nil)

		assert.Nil(t, info.Created)
		assert.Equal(t, "Receipt", info.Title)
	})

	t.Run("trailing dash stays in title", func(t *testing.T) {
		info := ParseFilename("Acme - Invoice -", nil)

		require.NotNil(t, info.Correspondent)
		assert.Equal(t, "Acme", *info.Correspondent)
		assert.Equal(t, "Invoice -", info.Title)
	})

	t.Run("empty correspondent parses as empty string", func(t *testing.T) {
		info := ParseFilename(" - Invoice", nil)

		require.NotNil(t, info.Correspondent)
		assert.Equal(t, "", *info.Correspondent)
		assert.Equal(t, "Invoice", info.Title)
	})

	t.Run("tags are slugified order preserved", func(t *testing.T) {
		info := ParseFilename("Acme - Invoice - Tax Forms,2023,Q1 Review", nil)

		assert.Equal(t, []string{"tax-forms", "2023", "q1-review"}, info.Tags)
	})

	t.Run("rewrite rule applies before grammar", func(t *testing.T) {
		rules, err := NewFilenameRules([]RewriteRule{
			{Pattern: `^scan_(\d+)$`, Replacement: "Scanner - Scan $1"},
		})
		require.NoError(t, err)

		info := ParseFilename("scan_0042", rules)

		require.NotNil(t, info.Correspondent)
		assert.Equal(t, "Scanner", *info.Correspondent)
		assert.Equal(t, "Scan 0042", info.Title)
	})

	t.Run("first matching rewrite rule wins", func(t *testing.T) {
		rules, err := NewFilenameRules([]RewriteRule{
			{Pattern: `^doc`, Replacement: "first"},
			{Pattern: `^document`, Replacement: "second"},
		})
		require.NoError(t, err)

		info := ParseFilename("document", rules)

		assert.Equal(t, "firstument", info.Title)
	})

	t.Run("no rewrite rule matches leaves name unaltered", func(t *testing.T) {
		rules, err := NewFilenameRules([]RewriteRule{
			{Pattern: `^scan_`, Replacement: "x"},
		})
		require.NoError(t, err)

		info := ParseFilename("Acme - Invoice", rules)

		require.NotNil(t, info.Correspondent)
		assert.Equal(t, "Acme", *info.Correspondent)
	})

	t.Run("invalid rewrite pattern is rejected", func(t *testing.T) {
		_, err := NewFilenameRules([]RewriteRule{{Pattern: `([`, Replacement: ""}})
		assert.Error(t, err)
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Acme", "acme"},
		{"spaces become hyphens", "Tax Forms", "tax-forms"},
		{"symbol runs collapse", "a!!b  c", "a-b-c"},
		{"trims hyphens", " -edge- ", "edge"},
		{"empty is safe", "", ""},
		{"all symbols is safe", "!!!", ""},
		{"digits survive", "Q1 2023", "q1-2023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
