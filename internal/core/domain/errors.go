package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoTrainingData indicates the classifier corpus is empty.
	ErrNoTrainingData = errors.New("no training data available")

	// ErrModelNotTrained indicates prediction was attempted before any
	// model was trained or loaded.
	ErrModelNotTrained = errors.New("classifier model not trained")
)

// ErrorKind classifies consumption-path failures so callers can switch on
// kind instead of string-matching messages.
type ErrorKind int

const (
	// KindInput covers not-a-file and invalid override errors.
	KindInput ErrorKind = iota

	// KindDuplicate is the informational rejection of an already
	// archived file.
	KindDuplicate

	// KindUnsupported means no parser accepts the detected MIME type.
	KindUnsupported

	// KindParseFailure wraps an error raised by a document parser.
	KindParseFailure

	// KindIncompatibleVersion means a persisted classifier model has an
	// unexpected format version.
	KindIncompatibleVersion

	// KindFilesystem covers placement and rename failures.
	KindFilesystem

	// KindHook means an external pre/post-consume script failed.
	KindHook

	// KindValidation covers rejected bulk selections.
	KindValidation
)

// String names the kind for log output.
func (k ErrorKind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindUnsupported:
		return "unsupported"
	case KindParseFailure:
		return "parse failure"
	case KindIncompatibleVersion:
		return "incompatible version"
	case KindFilesystem:
		return "filesystem"
	case KindHook:
		return "hook"
	case KindValidation:
		return "validation"
	default:
		return "input"
	}
}

// ConsumeError is the single typed error surfaced by the consumption
// pipeline. It carries a human-readable message and a kind for callers
// that need to distinguish duplicates from operational failures.
type ConsumeError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *ConsumeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap exposes the underlying cause.
func (e *ConsumeError) Unwrap() error {
	return e.Err
}

// NewConsumeError builds a ConsumeError with an optional cause.
func NewConsumeError(kind ErrorKind, cause error, format string, args ...any) *ConsumeError {
	return &ConsumeError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Err:  cause,
	}
}

// IsDuplicate reports whether err is a duplicate-document rejection.
func IsDuplicate(err error) bool {
	var ce *ConsumeError
	return errors.As(err, &ce) && ce.Kind == KindDuplicate
}

// KindOf returns the ErrorKind of a consumption error, or KindInput and
// false when err is not a ConsumeError.
func KindOf(err error) (ErrorKind, bool) {
	var ce *ConsumeError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return KindInput, false
}
