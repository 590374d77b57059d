package fts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

const defaultPageSize = 10

// moreLikeTermCount bounds the number of reference terms used for a
// similarity query.
const moreLikeTermCount = 20

// bm25 column weights: title > tags > correspondent = type > content.
const rankExpr = "bm25(search_index, 10.0, 1.0, 4.0, 6.0, 4.0)"

// Search answers a free-text or similarity query.
func (ix *Index) Search(ctx context.Context, q driven.Query) (*domain.SearchPage, error) {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var parsed *parsedQuery
	var excludeID int64
	if q.MoreLikeID != 0 {
		terms, err := ix.moreLikeTerms(ctx, q.MoreLikeContent)
		if err != nil {
			return nil, err
		}
		if len(terms) == 0 {
			return &domain.SearchPage{Page: 1}, nil
		}
		quoted := make([]string, len(terms))
		for i, t := range terms {
			quoted[i] = quoteTerm(t)
		}
		parsed = &parsedQuery{match: strings.Join(quoted, " OR "), terms: terms}
		excludeID = q.MoreLikeID
	} else {
		parsed = parseQuery(q.Text)
		if parsed.empty() {
			return &domain.SearchPage{Page: 1}, nil
		}
	}

	where, args := buildWhere(parsed, excludeID)

	var total int
	countSQL := "SELECT count(*) FROM search_index" + where
	if err := ix.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting results: %w", err)
	}

	page := clampPage(q.Page, total, pageSize)
	pageCount := (total + pageSize - 1) / pageSize

	sp := &domain.SearchPage{
		Page:      page,
		PageCount: pageCount,
		Total:     total,
	}
	if q.MoreLikeID == 0 {
		corrected, err := ix.suggestCorrected(ctx, q.Text, parsed.terms)
		if err == nil {
			sp.CorrectedQuery = corrected
		}
	}
	if total == 0 {
		return sp, nil
	}

	// bm25 is only defined for MATCH queries; filter-only queries sort
	// by creation date instead.
	rank := rankExpr
	order := " ORDER BY " + rankExpr
	if parsed.match == "" {
		rank = "0.0"
		order = " ORDER BY created DESC"
	}
	rowsSQL := `
		SELECT doc_id, title, correspondent, tags, type,
			created, added, modified, content, ` + rank + `
		FROM search_index` + where + order + ` LIMIT ? OFFSET ?`
	rowArgs := append(append([]any{}, args...), pageSize, (page-1)*pageSize)

	rows, err := ix.db.QueryContext(ctx, rowsSQL, rowArgs...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.SearchResult
		var tags, created, added, modified, content string
		var rank float64
		if err := rows.Scan(&r.ID, &r.Title, &r.Correspondent, &tags, &r.Type,
			&created, &added, &modified, &content, &rank); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		if tags != "" {
			r.Tags = strings.Split(tags, ",")
		}
		r.Created = parseIndexTime(created)
		r.Added = parseIndexTime(added)
		r.Modified = parseIndexTime(modified)
		// bm25 scores are negative, smaller is better.
		r.Score = -rank
		r.Highlights = highlight(content, parsed.terms)
		sp.Results = append(sp.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return sp, nil
}

// buildWhere renders the WHERE clause for a parsed query.
func buildWhere(parsed *parsedQuery, excludeID int64) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if parsed.match != "" {
		where += " AND search_index MATCH ?"
		args = append(args, parsed.match)
	}
	clause, filterArgs := filterClause(parsed.filters)
	where += clause
	args = append(args, filterArgs...)
	if excludeID != 0 {
		where += " AND doc_id != ?"
		args = append(args, excludeID)
	}
	return where, args
}

// clampPage normalises the requested page: invalid values fall back to
// the first page, pages past the end serve the last page.
func clampPage(page, total, pageSize int) int {
	if page < 1 {
		return 1
	}
	last := (total + pageSize - 1) / pageSize
	if last > 0 && page > last {
		return last
	}
	return page
}

// Autocomplete returns up to limit of the most distinctive indexed terms
// starting with the prefix. Distinctiveness weighs total occurrences
// against how many documents share the term.
func (ix *Index) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit <= 0 {
		return nil, nil
	}

	docCount, err := ix.documentCount(ctx)
	if err != nil {
		return nil, err
	}
	if docCount == 0 {
		return nil, nil
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT term, doc, cnt FROM search_vocab
		WHERE term >= ? AND term < ?
	`, prefix, prefix+"￿")
	if err != nil {
		return nil, fmt.Errorf("querying vocabulary: %w", err)
	}
	defer rows.Close()

	type scored struct {
		term  string
		score float64
	}
	var candidates []scored
	for rows.Next() {
		var term string
		var doc, cnt int
		if err := rows.Scan(&term, &doc, &cnt); err != nil {
			return nil, fmt.Errorf("scanning vocabulary: %w", err)
		}
		score := float64(cnt) * math.Log(1+float64(docCount)/float64(doc))
		candidates = append(candidates, scored{term, score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vocabulary: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].term < candidates[j].term
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	terms := make([]string, len(candidates))
	for i, c := range candidates {
		terms[i] = c.term
	}
	return terms, nil
}

// suggestCorrected proposes a spelling-corrected query. Plain terms
// absent from the vocabulary are replaced by the closest known term
// within two edits; an empty string means nothing to correct.
func (ix *Index) suggestCorrected(ctx context.Context, text string, terms []string) (string, error) {
	if len(terms) == 0 {
		return "", nil
	}

	replacements := map[string]string{}
	for _, term := range terms {
		if term == "" {
			continue
		}
		known, err := ix.termKnown(ctx, term)
		if err != nil {
			return "", err
		}
		if known {
			continue
		}
		best, err := ix.closestTerm(ctx, term)
		if err != nil {
			return "", err
		}
		if best != "" {
			replacements[term] = best
		}
	}
	if len(replacements) == 0 {
		return "", nil
	}

	tokens := tokenize(text)
	for i, token := range tokens {
		if repl, ok := replacements[strings.ToLower(token)]; ok {
			tokens[i] = repl
		}
	}
	return strings.Join(tokens, " "), nil
}

func (ix *Index) termKnown(ctx context.Context, term string) (bool, error) {
	var one int
	err := ix.db.QueryRowContext(ctx,
		"SELECT 1 FROM search_vocab WHERE term = ?", term).Scan(&one)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("probing vocabulary: %w", err)
}

// closestTerm scans vocabulary terms sharing the first letter and picks
// the most frequent one within two edits.
func (ix *Index) closestTerm(ctx context.Context, term string) (string, error) {
	first := term[:1]
	rows, err := ix.db.QueryContext(ctx, `
		SELECT term, doc FROM search_vocab WHERE term >= ? AND term < ?
	`, first, first+"￿")
	if err != nil {
		return "", fmt.Errorf("querying vocabulary: %w", err)
	}
	defer rows.Close()

	best := ""
	bestDist := 3
	bestDoc := 0
	for rows.Next() {
		var candidate string
		var doc int
		if err := rows.Scan(&candidate, &doc); err != nil {
			return "", fmt.Errorf("scanning vocabulary: %w", err)
		}
		d := domain.EditDistance(term, candidate)
		if d < bestDist || (d == bestDist && doc > bestDoc) {
			best = candidate
			bestDist = d
			bestDoc = doc
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating vocabulary: %w", err)
	}
	if bestDist > 2 {
		return "", nil
	}
	return best, nil
}

// moreLikeTerms extracts the most distinctive terms of the reference
// content by term frequency weighted with inverse document frequency.
func (ix *Index) moreLikeTerms(ctx context.Context, content string) ([]string, error) {
	freq := map[string]int{}
	for _, w := range splitWords(content) {
		freq[w]++
	}
	if len(freq) == 0 {
		return nil, nil
	}

	docCount, err := ix.documentCount(ctx)
	if err != nil {
		return nil, err
	}
	if docCount == 0 {
		return nil, nil
	}

	type scored struct {
		term  string
		score float64
	}
	var candidates []scored
	for term, tf := range freq {
		var doc int
		err := ix.db.QueryRowContext(ctx,
			"SELECT doc FROM search_vocab WHERE term = ?", term).Scan(&doc)
		if err != nil || doc == 0 {
			continue
		}
		score := float64(tf) * math.Log(1+float64(docCount)/float64(doc))
		candidates = append(candidates, scored{term, score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].term < candidates[j].term
	})
	if len(candidates) > moreLikeTermCount {
		candidates = candidates[:moreLikeTermCount]
	}
	terms := make([]string, len(candidates))
	for i, c := range candidates {
		terms[i] = c.term
	}
	return terms, nil
}

func (ix *Index) documentCount(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx,
		"SELECT count(*) FROM search_index").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// splitWords lower-cases and splits text into alphanumeric words of at
// least three characters.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			current.WriteRune(r)
			continue
		}
		if current.Len() >= 3 {
			words = append(words, current.String())
		}
		current.Reset()
	}
	if current.Len() >= 3 {
		words = append(words, current.String())
	}
	return words
}
