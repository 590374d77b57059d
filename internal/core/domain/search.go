package domain

import "time"

// IndexEntry is the projection of a Document kept in the search index.
// It is derived state: always rebuildable by re-scanning all documents.
type IndexEntry struct {
	// ID is the document id, the unique index key.
	ID int64

	// Title is indexed and returned with results.
	Title string

	// Content is the full text. Indexed but never returned verbatim;
	// results carry highlight fragments instead.
	Content string

	// Correspondent is the correspondent name, empty when unset.
	Correspondent string

	// Tags are the comma-joined, lower-cased tag names.
	Tags string

	// Type is the document type name, empty when unset.
	Type string

	Created  time.Time
	Modified time.Time
	Added    time.Time
}

// HighlightSpan is one token of a highlighted snippet: either a plain
// text fragment or a highlighted match.
type HighlightSpan struct {
	Text      string `json:"text"`
	Highlight bool   `json:"highlight"`
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	ID            int64
	Title         string
	Correspondent string
	Tags          []string
	Type          string
	Created       time.Time
	Added         time.Time
	Modified      time.Time

	// Score is the relevance score.
	Score float64

	// Highlights are context fragments of the content with matched
	// terms marked, one span list per fragment.
	Highlights [][]HighlightSpan
}

// SearchPage is one page of ranked results.
type SearchPage struct {
	Results []SearchResult

	// Page is the served page number. When the requested page lies past
	// the end, this reflects the clamped last page.
	Page int

	// PageCount is the number of available pages.
	PageCount int

	// Total is the total hit count.
	Total int

	// CorrectedQuery is a spelling-corrected form of the query, empty
	// when the literal query already parses best.
	CorrectedQuery string
}
