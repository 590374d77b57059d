// Package watcher feeds files appearing in the consumption directory
// into the consumer. Files are processed by a small worker pool; a
// settle delay avoids ingesting files still being written.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

const (
	// settleInterval is how long a file's size must stay unchanged
	// before it is considered fully written.
	settleInterval = 500 * time.Millisecond

	// settleAttempts bounds the wait for files that keep growing.
	settleAttempts = 60
)

// Watcher observes one consumption directory.
type Watcher struct {
	dir      string
	consumer driving.Consumer
	workers  int
	settle   time.Duration

	mu      sync.Mutex
	pending map[string]bool
}

// New creates a watcher over dir feeding the consumer with at least one
// worker.
func New(dir string, consumer driving.Consumer, workers int) *Watcher {
	if workers < 1 {
		workers = 1
	}
	return &Watcher{
		dir:      dir,
		consumer: consumer,
		workers:  workers,
		settle:   settleInterval,
		pending:  map[string]bool{},
	}
}

// Run consumes existing files, then blocks handling filesystem events
// until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("watching %s with %d workers", w.dir, w.workers)

	paths := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				w.consumeOne(ctx, path)
			}
		}()
	}
	defer wg.Wait()
	defer close(paths)

	if err := w.enqueueExisting(ctx, paths); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !w.wantsFile(event.Name) {
				continue
			}
			select {
			case paths <- event.Name:
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// enqueueExisting hands over files already sitting in the directory
// when the watcher starts.
func (w *Watcher) enqueueExisting(ctx context.Context, paths chan<- string) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if !w.wantsFile(path) {
			continue
		}
		select {
		case paths <- path:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// wantsFile filters events and marks the path as in flight. Hidden and
// partially transferred files are skipped; a path already queued is not
// queued again for follow-up write events.
func (w *Watcher) wantsFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".part") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending[path] {
		return false
	}
	w.pending[path] = true
	return true
}

func (w *Watcher) consumeOne(ctx context.Context, path string) {
	defer func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
	}()

	if !w.waitSettled(ctx, path) {
		return
	}

	_, err := w.consumer.Consume(ctx, path, driving.ConsumeOverrides{})
	switch {
	case err == nil:
	case domain.IsDuplicate(err):
		logger.Info("%v", err)
	default:
		logger.Error("consuming %s: %v", filepath.Base(path), err)
	}
}

// waitSettled blocks until the file size is stable for one interval.
// Returns false when the file vanished or the context was cancelled.
func (w *Watcher) waitSettled(ctx context.Context, path string) bool {
	var lastSize int64 = -1
	for i := 0; i < settleAttempts; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()

		select {
		case <-ctx.Done():
			return false
		case <-time.After(w.settle):
		}
	}
	logger.Warn("%s did not settle, consuming anyway", filepath.Base(path))
	return true
}
