package fts

import (
	"fmt"
	"strings"
	"time"
)

// fieldColumns maps user-facing field prefixes to index columns.
var fieldColumns = map[string]string{
	"title":         "title",
	"content":       "content",
	"correspondent": "correspondent",
	"tag":           "tags",
	"type":          "type",
}

// dateFields are the prefixes that introduce a date filter instead of a
// text match.
var dateFields = map[string]bool{
	"created":  true,
	"added":    true,
	"modified": true,
}

// dateFilter restricts results on one unindexed timestamp column.
type dateFilter struct {
	column string
	op     string // ">=" or "<"
	value  time.Time
}

// parsedQuery is the outcome of parsing one free-text query.
type parsedQuery struct {
	// match is the FTS5 MATCH expression, empty when the query carries
	// only date filters.
	match string

	// terms are the plain content words, kept for highlighting and
	// spelling suggestions.
	terms []string

	filters []dateFilter
}

func (q *parsedQuery) empty() bool {
	return q.match == "" && len(q.filters) == 0
}

// parseQuery splits a query into field-scoped matches, date filters and
// plain terms. Unknown field prefixes are treated as plain text.
func parseQuery(text string) *parsedQuery {
	q := &parsedQuery{}
	var parts []string

	for _, token := range tokenize(text) {
		field, rest, hasField := strings.Cut(token, ":")
		field = strings.ToLower(field)

		switch {
		case hasField && dateFields[field] && rest != "":
			if filters, ok := parseDateFilters(field, rest); ok {
				q.filters = append(q.filters, filters...)
				continue
			}
			// Unparseable date expressions degrade to plain text.
			parts = append(parts, quoteTerm(token))
			q.terms = append(q.terms, strings.ToLower(token))

		case hasField && fieldColumns[field] != "" && rest != "":
			parts = append(parts, fieldColumns[field]+": "+quoteTerm(rest))
			if fieldColumns[field] == "content" {
				q.terms = append(q.terms, strings.ToLower(strings.Trim(rest, `"*`)))
			}

		default:
			parts = append(parts, quoteTerm(token))
			q.terms = append(q.terms, strings.ToLower(strings.Trim(token, `"*`)))
		}
	}

	q.match = strings.Join(parts, " ")
	return q
}

// tokenize splits on whitespace but keeps double-quoted phrases
// together, including an optional field prefix before the quote.
func tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	for _, r := range text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n'):
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// quoteTerm renders one term as a safe FTS5 string, preserving a
// trailing * as a prefix query.
func quoteTerm(term string) string {
	prefix := strings.HasSuffix(term, "*") && !strings.HasSuffix(term, `"*`)
	term = strings.Trim(term, `"`)
	term = strings.TrimSuffix(term, "*")
	if term == "" {
		return `""`
	}
	quoted := `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	if prefix {
		quoted += "*"
	}
	return quoted
}

// parseDateFilters interprets one date expression for the given field.
// Supported forms: an exact day or year ("2023-04-01", "2023"), which
// expand into a range, and explicit bounds (">=2023-01-01", "<2024").
func parseDateFilters(field, expr string) ([]dateFilter, bool) {
	col := field

	switch {
	case strings.HasPrefix(expr, ">="):
		t, ok := parseDateValue(expr[2:], false)
		if !ok {
			return nil, false
		}
		return []dateFilter{{col, ">=", t}}, true

	case strings.HasPrefix(expr, ">"):
		t, ok := parseDateValue(expr[1:], true)
		if !ok {
			return nil, false
		}
		return []dateFilter{{col, ">=", t}}, true

	case strings.HasPrefix(expr, "<="):
		t, ok := parseDateValue(expr[2:], true)
		if !ok {
			return nil, false
		}
		return []dateFilter{{col, "<", t}}, true

	case strings.HasPrefix(expr, "<"):
		t, ok := parseDateValue(expr[1:], false)
		if !ok {
			return nil, false
		}
		return []dateFilter{{col, "<", t}}, true

	default:
		from, ok := parseDateValue(expr, false)
		if !ok {
			return nil, false
		}
		to, _ := parseDateValue(expr, true)
		return []dateFilter{{col, ">=", from}, {col, "<", to}}, true
	}
}

// parseDateValue parses a day, month or year value. When end is true the
// exclusive upper bound of the period is returned instead of its start.
func parseDateValue(s string, end bool) (time.Time, bool) {
	layouts := []struct {
		layout string
		bump   func(time.Time) time.Time
	}{
		{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
		{"2006-01", func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
		{"2006", func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
	}
	for _, l := range layouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if end {
			return l.bump(t), true
		}
		return t, true
	}
	return time.Time{}, false
}

// filterClause renders the date filters as SQL conditions on the stored
// timestamp strings.
func filterClause(filters []dateFilter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	var b strings.Builder
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		fmt.Fprintf(&b, " AND %s %s ?", f.column, f.op)
		args = append(args, f.value.UTC().Format(timeLayout))
	}
	return b.String(), args
}
