package domain

import (
	"regexp"
	"strings"
	"time"
)

// FilenameInfo is the metadata recognised in an intake filename.
type FilenameInfo struct {
	// Correspondent is the recognised correspondent name, nil when the
	// filename carries none.
	Correspondent *string

	// Title is always produced; at worst the whole filename minus any
	// recognised date prefix.
	Title string

	// Tags are the recognised tag names, lower-cased and slugified,
	// order preserved.
	Tags []string

	// Created is the recognised document date, nil when absent or
	// malformed.
	Created *time.Time
}

// RewriteRule is a user-configured (pattern, replacement) pair applied to
// filenames before grammar matching.
type RewriteRule struct {
	Pattern     string
	Replacement string
}

// FilenameRules holds the ordered rewrite rules from configuration.
type FilenameRules struct {
	rules []rewriteRule
}

type rewriteRule struct {
	re          *regexp.Regexp
	replacement string
}

// NewFilenameRules compiles the configured rewrite rules. Rules with
// invalid patterns are rejected.
func NewFilenameRules(rules []RewriteRule) (*FilenameRules, error) {
	compiled := make([]rewriteRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, rewriteRule{re: re, replacement: r.Replacement})
	}
	return &FilenameRules{rules: compiled}, nil
}

// apply rewrites name using the first matching rule, or returns it
// unaltered when no rule matches.
func (f *FilenameRules) apply(name string) string {
	if f == nil {
		return name
	}
	for _, r := range f.rules {
		if r.re.MatchString(name) {
			return r.re.ReplaceAllString(name, r.replacement)
		}
	}
	return name
}

// The grammar recognises, in order of presence, an optional date token,
// an optional correspondent, a title, and optional comma-separated tags.
// Alternatives are tried most-specific first; the first match wins.
const (
	datePart = `(?P<date>\d{4}-\d{2}-\d{2}|\d{8}(?:\d{6})?Z?)`
	tagsPart = `(?P<tags>[a-zA-Z0-9,_ -]*)`
)

var filenameGrammar = []*regexp.Regexp{
	regexp.MustCompile(`^` + datePart + ` - (?P<correspondent>.*) - (?P<title>.*) - ` + tagsPart + `$`),
	regexp.MustCompile(`^` + datePart + ` - (?P<correspondent>.*) - (?P<title>.*)$`),
	regexp.MustCompile(`^` + datePart + ` - (?P<title>.*)$`),
	regexp.MustCompile(`^(?P<correspondent>.*) - (?P<title>.*) - ` + tagsPart + `$`),
	regexp.MustCompile(`^(?P<correspondent>.*) - (?P<title>.*)$`),
	regexp.MustCompile(`^(?P<title>.*)$`),
}

// ParseFilename extracts metadata from a bare filename whose extension
// has already been stripped. The configured rewrite rules are applied
// first; rules may be nil.
func ParseFilename(name string, rules *FilenameRules) FilenameInfo {
	name = rules.apply(name)

	for _, re := range filenameGrammar {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		info := FilenameInfo{}
		for i, group := range re.SubexpNames() {
			switch group {
			case "date":
				info.Created = parseFilenameDate(m[i])
			case "correspondent":
				c := strings.TrimSpace(m[i])
				info.Correspondent = &c
			case "title":
				info.Title = strings.TrimSpace(m[i])
			case "tags":
				info.Tags = splitTags(m[i])
			}
		}
		return info
	}

	// The bare-title alternative matches everything, so this is
	// unreachable; kept so the function always returns a title.
	return FilenameInfo{Title: name}
}

// parseFilenameDate interprets a recognised date token. Malformed dates
// yield nil instead of an error so title parsing proceeds without one.
func parseFilenameDate(token string) *time.Time {
	layouts := []string{"2006-01-02", "20060102150405Z", "20060102150405", "20060102Z", "20060102"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, token); err == nil {
			return &t
		}
	}
	return nil
}

// splitTags lower-cases and slugifies the comma-separated tag list.
func splitTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		slug := Slugify(part)
		if slug != "" {
			tags = append(tags, slug)
		}
	}
	return tags
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and collapses every non-alphanumeric run into a
// single hyphen. Empty and all-symbol input yields "".
func Slugify(s string) string {
	s = slugStrip.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}
