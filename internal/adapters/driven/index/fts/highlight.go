package fts

import (
	"sort"
	"strings"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
)

const (
	// fragmentContext is how many characters of surrounding text a
	// fragment keeps on each side of its matches.
	fragmentContext = 50

	// fragmentJoin merges matches into one fragment when they lie
	// within this many characters of each other.
	fragmentJoin = 100

	// highlightJoin folds two highlighted matches into one span when
	// the text between them is shorter than this.
	highlightJoin = 10

	// maxFragments caps the number of fragments per result.
	maxFragments = 3
)

type matchPos struct {
	start, end int
}

// highlight builds span lists around the occurrences of the query terms
// in content. Each fragment alternates plain and highlighted spans;
// closely spaced matches share one highlighted span.
func highlight(content string, terms []string) [][]domain.HighlightSpan {
	matches := findMatches(content, terms)
	if len(matches) == 0 {
		return nil
	}

	var fragments [][]domain.HighlightSpan
	for _, group := range groupMatches(matches) {
		if len(fragments) == maxFragments {
			break
		}
		fragments = append(fragments, renderFragment(content, group))
	}
	return fragments
}

// findMatches locates case-insensitive whole-word occurrences of the
// terms, sorted by position.
func findMatches(content string, terms []string) []matchPos {
	lower := strings.ToLower(content)
	var matches []matchPos
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(lower[from:], term)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(term)
			if isWordBoundary(lower, start-1) && isWordBoundary(lower, end) {
				matches = append(matches, matchPos{start, end})
			}
			from = end
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })
	return dedupeMatches(matches)
}

func isWordBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9')
}

func dedupeMatches(matches []matchPos) []matchPos {
	var out []matchPos
	for _, m := range matches {
		if len(out) > 0 && m.start < out[len(out)-1].end {
			if m.end > out[len(out)-1].end {
				out[len(out)-1].end = m.end
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

// groupMatches clusters matches that are close enough to share one
// fragment.
func groupMatches(matches []matchPos) [][]matchPos {
	var groups [][]matchPos
	var current []matchPos
	for _, m := range matches {
		if len(current) > 0 && m.start-current[len(current)-1].end > fragmentJoin {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, m)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// renderFragment emits the span list of one fragment, folding closely
// spaced matches into a single highlighted span.
func renderFragment(content string, group []matchPos) []domain.HighlightSpan {
	start := group[0].start - fragmentContext
	if start < 0 {
		start = 0
	}
	end := group[len(group)-1].end + fragmentContext
	if end > len(content) {
		end = len(content)
	}

	var spans []domain.HighlightSpan
	pos := start
	for i := 0; i < len(group); i++ {
		m := group[i]

		// Fold runs of nearby matches into one highlight.
		hiEnd := m.end
		for i+1 < len(group) && group[i+1].start-hiEnd < highlightJoin {
			i++
			hiEnd = group[i].end
		}

		if m.start > pos {
			spans = append(spans, domain.HighlightSpan{Text: content[pos:m.start]})
		}
		spans = append(spans, domain.HighlightSpan{
			Text:      content[m.start:hiEnd],
			Highlight: true,
		})
		pos = hiEnd
	}
	if pos < end {
		spans = append(spans, domain.HighlightSpan{Text: content[pos:end]})
	}
	return spans
}
