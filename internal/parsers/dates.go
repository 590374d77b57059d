package parsers

import (
	"regexp"
	"strconv"
	"time"

	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// Date patterns recognised inside document content, most specific
// first. Group order is normalised to year, month, day by the index
// triples below.
var datePatterns = []struct {
	re               *regexp.Regexp
	year, month, day int
}{
	{regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`), 1, 2, 3},
	{regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`), 3, 2, 1},
	{regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`), 3, 2, 1},
}

// FindCreatedDate scans text for the first plausible document date.
// Dates before 1900 or more than a year in the future are ignored.
func FindCreatedDate(text string) *driven.CreatedDate {
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, 10) {
			year, _ := strconv.Atoi(m[p.year])
			month, _ := strconv.Atoi(m[p.month])
			day, _ := strconv.Atoi(m[p.day])
			if plausibleDate(year, month, day) {
				return &driven.CreatedDate{Year: year, Month: month, Day: day}
			}
		}
	}
	return nil
}

func plausibleDate(year, month, day int) bool {
	if year < 1900 || year > time.Now().Year()+1 {
		return false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	// Reject impossible day-of-month combinations.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}
