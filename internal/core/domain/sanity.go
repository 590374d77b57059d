package domain

import "fmt"

// SanitySeverity grades sanity checker findings.
type SanitySeverity int

const (
	// SanityWarning flags a condition worth reviewing, e.g. empty
	// content or an orphaned file.
	SanityWarning SanitySeverity = iota

	// SanityError flags an inconsistency between records and files.
	SanityError
)

// SanityMessage is one finding of the sanity checker.
type SanityMessage struct {
	Severity SanitySeverity

	// DocumentID identifies the affected document, 0 for findings not
	// tied to a record (orphaned files).
	DocumentID int64

	Message string
}

// String renders the finding for log output.
func (m SanityMessage) String() string {
	if m.Severity == SanityError {
		return fmt.Sprintf("ERROR: %s", m.Message)
	}
	return fmt.Sprintf("Warning: %s", m.Message)
}
