package fts

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

const schema = `
CREATE VIRTUAL TABLE IF NOT EXISTS search_index USING fts5(
	title, content, correspondent, tags, type,
	doc_id UNINDEXED, created UNINDEXED, added UNINDEXED, modified UNINDEXED,
	tokenize = 'unicode61 remove_diacritics 2'
);
CREATE VIRTUAL TABLE IF NOT EXISTS search_vocab USING fts5vocab(search_index, row);
`

// timeLayout stores timestamps so lexicographic comparison matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05Z"

// Index is the SQLite FTS5 implementation of the search index port.
type Index struct {
	db   *sql.DB
	path string

	// writeMu serialises all index mutations. BeginBatch holds it for
	// the lifetime of the returned writer.
	writeMu sync.Mutex
}

var _ driven.SearchIndex = (*Index)(nil)

// NewIndex opens (or creates) the index database under dir. A corrupt
// index file is discarded and recreated empty.
func NewIndex(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	path := filepath.Join(dir, "index.db")

	db, err := openIndexDB(path)
	if err != nil {
		// Derived state: drop the broken file and start over.
		logger.Warn("search index unreadable, recreating empty: %v", err)
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		db, err = openIndexDB(path)
		if err != nil {
			return nil, fmt.Errorf("recreating index: %w", err)
		}
	}

	return &Index{db: db, path: path}, nil
}

func openIndexDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}
	// Probe the table so a corrupt file surfaces here, not mid-query.
	var n int
	if err := db.QueryRow("SELECT count(*) FROM search_index").Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("probing index: %w", err)
	}
	return db, nil
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Upsert replaces any existing entry with a matching document id.
func (ix *Index) Upsert(ctx context.Context, entry *domain.IndexEntry) error {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()
	return upsertEntry(ctx, ix.db, entry)
}

// Remove deletes the entry by document id.
func (ix *Index) Remove(ctx context.Context, id int64) error {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()
	return removeEntry(ctx, ix.db, id)
}

// Reset drops all entries.
func (ix *Index) Reset(ctx context.Context) error {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()
	if _, err := ix.db.ExecContext(ctx, "DELETE FROM search_index"); err != nil {
		return fmt.Errorf("resetting index: %w", err)
	}
	return nil
}

// Optimize merges the FTS b-trees into a single segment.
func (ix *Index) Optimize(ctx context.Context) error {
	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()
	if _, err := ix.db.ExecContext(ctx,
		"INSERT INTO search_index(search_index) VALUES('optimize')"); err != nil {
		return fmt.Errorf("optimizing index: %w", err)
	}
	if _, err := ix.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuuming index: %w", err)
	}
	return nil
}

// BeginBatch opens the shared writer for a multi-document mutation.
func (ix *Index) BeginBatch(ctx context.Context) (driven.IndexWriter, error) {
	ix.writeMu.Lock()
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		ix.writeMu.Unlock()
		return nil, fmt.Errorf("beginning index batch: %w", err)
	}
	return &batchWriter{index: ix, ctx: ctx, tx: tx}, nil
}

// batchWriter applies mutations inside one transaction and holds the
// writer lock until Close.
type batchWriter struct {
	index  *Index
	ctx    context.Context
	tx     *sql.Tx
	closed bool
}

func (w *batchWriter) Upsert(entry *domain.IndexEntry) error {
	return upsertEntry(w.ctx, w.tx, entry)
}

func (w *batchWriter) Remove(id int64) error {
	return removeEntry(w.ctx, w.tx, id)
}

// Close commits the batch and releases the writer lock.
func (w *batchWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.index.writeMu.Unlock()
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("committing index batch: %w", err)
	}
	return nil
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertEntry(ctx context.Context, db execer, entry *domain.IndexEntry) error {
	if err := removeEntry(ctx, db, entry.ID); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO search_index
			(title, content, correspondent, tags, type, doc_id, created, added, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Title, entry.Content, entry.Correspondent, entry.Tags, entry.Type,
		entry.ID,
		entry.Created.UTC().Format(timeLayout),
		entry.Added.UTC().Format(timeLayout),
		entry.Modified.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("indexing document %d: %w", entry.ID, err)
	}
	return nil
}

func removeEntry(ctx context.Context, db execer, id int64) error {
	if _, err := db.ExecContext(ctx,
		"DELETE FROM search_index WHERE doc_id = ?", id); err != nil {
		return fmt.Errorf("removing document %d from index: %w", id, err)
	}
	return nil
}

func parseIndexTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
