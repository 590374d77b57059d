package parsers

import (
	"fmt"
	"os"
)

// WorkArea is a lazily created temporary directory for one parse run.
// The zero value is ready to use.
type WorkArea struct {
	dir string
}

// Dir returns the temporary directory, creating it on first use.
func (w *WorkArea) Dir() (string, error) {
	if w.dir != "" {
		return w.dir, nil
	}
	dir, err := os.MkdirTemp("", "paperbase-parse-")
	if err != nil {
		return "", fmt.Errorf("creating parser work directory: %w", err)
	}
	w.dir = dir
	return dir, nil
}

// Cleanup removes the directory and everything in it. Safe to call
// when Dir was never used.
func (w *WorkArea) Cleanup() error {
	if w.dir == "" {
		return nil
	}
	dir := w.dir
	w.dir = ""
	return os.RemoveAll(dir)
}
