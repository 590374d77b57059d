package domain

import (
	"regexp"
	"strings"
)

// MatchingAlgorithm selects how a correspondent, document type or tag is
// assigned to documents.
type MatchingAlgorithm int

const (
	// MatchNone disables matching for the entity.
	MatchNone MatchingAlgorithm = iota

	// MatchAny matches when any keyword of the expression occurs.
	MatchAny

	// MatchAll matches when every keyword of the expression occurs.
	MatchAll

	// MatchLiteral matches the expression as a literal substring on
	// word boundaries.
	MatchLiteral

	// MatchRegex matches the expression as a regular expression.
	MatchRegex

	// MatchFuzzy matches when the expression is approximately contained
	// in the text.
	MatchFuzzy

	// MatchAuto defers the decision to the trained classifier. It is a
	// sentinel: Matches never evaluates it directly.
	MatchAuto
)

// String returns the configuration name of the algorithm.
func (a MatchingAlgorithm) String() string {
	switch a {
	case MatchAny:
		return "any"
	case MatchAll:
		return "all"
	case MatchLiteral:
		return "literal"
	case MatchRegex:
		return "regex"
	case MatchFuzzy:
		return "fuzzy"
	case MatchAuto:
		return "auto"
	default:
		return "none"
	}
}

// wordBoundary wraps a literal so it only matches on word boundaries.
func wordBoundary(literal string) string {
	return `\b` + regexp.QuoteMeta(literal) + `\b`
}

// Matches evaluates a non-automatic matching rule against text.
// MatchAuto and MatchNone always return false; the classifier owns the
// automatic variant.
func Matches(algorithm MatchingAlgorithm, expression, text string) bool {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return false
	}
	lower := strings.ToLower(text)

	switch algorithm {
	case MatchAny:
		for _, word := range strings.Fields(strings.ToLower(expression)) {
			if matched, _ := regexp.MatchString(wordBoundary(word), lower); matched {
				return true
			}
		}
		return false

	case MatchAll:
		for _, word := range strings.Fields(strings.ToLower(expression)) {
			matched, _ := regexp.MatchString(wordBoundary(word), lower)
			if !matched {
				return false
			}
		}
		return true

	case MatchLiteral:
		matched, _ := regexp.MatchString(wordBoundary(strings.ToLower(expression)), lower)
		return matched

	case MatchRegex:
		re, err := regexp.Compile(expression)
		if err != nil {
			return false
		}
		return re.MatchString(text)

	case MatchFuzzy:
		return fuzzyContains(lower, strings.ToLower(expression))

	default:
		// MatchNone, MatchAuto.
		return false
	}
}

// fuzzyContains reports whether needle occurs in haystack within an edit
// distance proportional to the needle length (roughly 10%).
func fuzzyContains(haystack, needle string) bool {
	needle = strings.Join(strings.Fields(needle), " ")
	haystack = strings.Join(strings.Fields(haystack), " ")
	if needle == "" {
		return false
	}
	maxDist := len(needle) / 10
	if maxDist < 1 {
		maxDist = 1
	}

	// Slide a needle-sized window over the haystack.
	n := len(needle)
	if len(haystack) < n {
		return EditDistance(haystack, needle) <= maxDist
	}
	for i := 0; i+n <= len(haystack); i++ {
		if EditDistance(haystack[i:i+n], needle) <= maxDist {
			return true
		}
	}
	return false
}

// EditDistance computes the optimal string alignment distance, counting
// adjacent transpositions as a single edit. Fuzzy matching and spelling
// suggestions share it.
func EditDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev2 := make([]int, len(b)+1)
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				if t := prev2[j-2] + 1; t < curr[j] {
					curr[j] = t
				}
			}
		}
		prev2, prev, curr = prev, curr, prev2
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
