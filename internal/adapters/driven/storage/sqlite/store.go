package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/paperbase-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based record store that provides access to
// the document and metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string

	mu        sync.RWMutex
	observers []driven.DocumentObserver
}

// NewStore creates a new SQLite store at the specified data directory.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".paperbase", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "paperbase.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// MetadataStore returns a MetadataStore interface backed by this store.
func (s *Store) MetadataStore() driven.MetadataStore {
	return &metadataStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// notifyObservers runs the registered observers in registration order.
func (s *Store) notifyObservers(ctx context.Context, doc *domain.Document) error {
	s.mu.RLock()
	observers := make([]driven.DocumentObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		if err := o.DocumentSaved(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, title, content, correspondent_id, document_type_id,
	created, added, modified, mime_type, storage_type, checksum,
	archive_checksum, filename, archive_filename`

// AddObserver registers a post-persistence observer.
func (s *documentStore) AddObserver(observer driven.DocumentObserver) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.observers = append(s.store.observers, observer)
}

// CreateDocument inserts a new document and assigns its id.
func (s *documentStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.Added.IsZero() {
		doc.Added = now
	}
	if doc.Created.IsZero() {
		doc.Created = doc.Added
	}
	doc.Modified = now

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (title, content, correspondent_id, document_type_id,
			created, added, modified, mime_type, storage_type, checksum,
			archive_checksum, filename, archive_filename)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.Title, doc.Content, doc.CorrespondentID, doc.DocumentTypeID,
		doc.Created, doc.Added, doc.Modified, doc.MIMEType, string(doc.StorageType),
		doc.Checksum, doc.ArchiveChecksum, doc.Filename, doc.ArchiveFilename)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading document id: %w", err)
	}
	doc.ID = id

	if err := replaceTags(ctx, tx, id, doc.TagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveDocument updates a document and its tag associations, then
// notifies observers.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	doc.Modified = time.Now().UTC()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		UPDATE documents SET
			title = ?, content = ?, correspondent_id = ?, document_type_id = ?,
			created = ?, modified = ?, mime_type = ?, storage_type = ?,
			checksum = ?, archive_checksum = ?, filename = ?, archive_filename = ?
		WHERE id = ?
	`, doc.Title, doc.Content, doc.CorrespondentID, doc.DocumentTypeID,
		doc.Created, doc.Modified, doc.MIMEType, string(doc.StorageType),
		doc.Checksum, doc.ArchiveChecksum, doc.Filename, doc.ArchiveFilename, doc.ID)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	if err := replaceTags(ctx, tx, doc.ID, doc.TagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return s.store.notifyObservers(ctx, doc)
}

// UpdateFilenames persists the filename fields without notifying
// observers.
func (s *documentStore) UpdateFilenames(
	ctx context.Context, id int64, filename, archiveFilename *string,
) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET filename = ?, archive_filename = ?, modified = ?
		WHERE id = ?
	`, filename, archiveFilename, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating filenames: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetDocument retrieves a document by id.
func (s *documentStore) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadTags(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns all documents ordered by id.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY id`)
}

// ListDocumentsByTag returns all documents carrying the tag.
func (s *documentStore) ListDocumentsByTag(ctx context.Context, tagID int64) ([]domain.Document, error) {
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE id IN (SELECT document_id FROM document_tags WHERE tag_id = ?)
		ORDER BY id`, tagID)
}

// ListInboxDocuments returns documents carrying at least one inbox tag.
func (s *documentStore) ListInboxDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE id IN (
			SELECT dt.document_id FROM document_tags dt
			JOIN tags t ON t.id = dt.tag_id
			WHERE t.is_inbox_tag = 1
		)
		ORDER BY id`)
}

// FindByChecksum returns the document whose original or archive checksum
// equals sum.
func (s *documentStore) FindByChecksum(ctx context.Context, sum string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE checksum = ? OR (archive_checksum != '' AND archive_checksum = ?)
	`, sum, sum)

	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadTags(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes the record and its tag associations.
func (s *documentStore) DeleteDocument(ctx context.Context, id int64) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// queryDocuments runs a multi-row document query and hydrates tags.
func (s *documentStore) queryDocuments(
	ctx context.Context, query string, args ...any,
) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	for i := range docs {
		if err := s.loadTags(ctx, &docs[i]); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// loadTags populates the document's tag ids.
func (s *documentStore) loadTags(ctx context.Context, doc *domain.Document) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT tag_id FROM document_tags WHERE document_id = ? ORDER BY tag_id
	`, doc.ID)
	if err != nil {
		return fmt.Errorf("querying document tags: %w", err)
	}
	defer rows.Close()

	doc.TagIDs = nil
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning tag id: %w", err)
		}
		doc.TagIDs = append(doc.TagIDs, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating document tags: %w", err)
	}
	return nil
}

// replaceTags rewrites the tag associations of a document inside tx.
func replaceTags(ctx context.Context, tx *sql.Tx, documentID int64, tagIDs []int64) error {
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_tags WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing document tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO document_tags (document_id, tag_id) VALUES (?, ?)
		`, documentID, tagID); err != nil {
			return fmt.Errorf("adding document tag: %w", err)
		}
	}
	return nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var correspondentID, documentTypeID sql.NullInt64
	var filename, archiveFilename sql.NullString
	var storageType string

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &correspondentID,
		&documentTypeID, &doc.Created, &doc.Added, &doc.Modified, &doc.MIMEType,
		&storageType, &doc.Checksum, &doc.ArchiveChecksum,
		&filename, &archiveFilename); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	applyNullables(&doc, correspondentID, documentTypeID, filename, archiveFilename, storageType)
	return &doc, nil
}

// scanDocumentRows scans a document from *sql.Rows.
func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var correspondentID, documentTypeID sql.NullInt64
	var filename, archiveFilename sql.NullString
	var storageType string

	if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &correspondentID,
		&documentTypeID, &doc.Created, &doc.Added, &doc.Modified, &doc.MIMEType,
		&storageType, &doc.Checksum, &doc.ArchiveChecksum,
		&filename, &archiveFilename); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	applyNullables(&doc, correspondentID, documentTypeID, filename, archiveFilename, storageType)
	return &doc, nil
}

func applyNullables(
	doc *domain.Document,
	correspondentID, documentTypeID sql.NullInt64,
	filename, archiveFilename sql.NullString,
	storageType string,
) {
	doc.StorageType = domain.StorageType(storageType)
	if correspondentID.Valid {
		doc.CorrespondentID = &correspondentID.Int64
	}
	if documentTypeID.Valid {
		doc.DocumentTypeID = &documentTypeID.Int64
	}
	if filename.Valid {
		doc.Filename = &filename.String
	}
	if archiveFilename.Valid {
		doc.ArchiveFilename = &archiveFilename.String
	}
}

// ==================== Metadata Store ====================

// metadataStore implements driven.MetadataStore.
type metadataStore struct {
	store *Store
}

var _ driven.MetadataStore = (*metadataStore)(nil)

// GetCorrespondent retrieves a correspondent by id.
func (s *metadataStore) GetCorrespondent(ctx context.Context, id int64) (*domain.Correspondent, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, matching_algorithm, match FROM correspondents WHERE id = ?
	`, id)

	var c domain.Correspondent
	var algorithm int
	if err := row.Scan(&c.ID, &c.Name, &algorithm, &c.Expression); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning correspondent: %w", err)
	}
	c.Algorithm = domain.MatchingAlgorithm(algorithm)
	return &c, nil
}

// GetOrCreateCorrespondent looks a correspondent up by name, creating it
// when absent.
func (s *metadataStore) GetOrCreateCorrespondent(ctx context.Context, name string) (*domain.Correspondent, error) {
	if _, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO correspondents (name) VALUES (?)
	`, name); err != nil {
		return nil, fmt.Errorf("creating correspondent: %w", err)
	}

	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, matching_algorithm, match FROM correspondents WHERE name = ?
	`, name)

	var c domain.Correspondent
	var algorithm int
	if err := row.Scan(&c.ID, &c.Name, &algorithm, &c.Expression); err != nil {
		return nil, fmt.Errorf("scanning correspondent: %w", err)
	}
	c.Algorithm = domain.MatchingAlgorithm(algorithm)
	return &c, nil
}

// ListCorrespondents returns all correspondents ordered by id.
func (s *metadataStore) ListCorrespondents(ctx context.Context) ([]domain.Correspondent, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, matching_algorithm, match FROM correspondents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying correspondents: %w", err)
	}
	defer rows.Close()

	var items []domain.Correspondent //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Correspondent
		var algorithm int
		if err := rows.Scan(&c.ID, &c.Name, &algorithm, &c.Expression); err != nil {
			return nil, fmt.Errorf("scanning correspondent: %w", err)
		}
		c.Algorithm = domain.MatchingAlgorithm(algorithm)
		items = append(items, c)
	}
	return items, rows.Err()
}

// SaveCorrespondent inserts or updates a correspondent.
func (s *metadataStore) SaveCorrespondent(ctx context.Context, c *domain.Correspondent) error {
	return s.saveRuleHolder(ctx, "correspondents", &c.ID, c.Name, c.MatchingRule)
}

// GetDocumentType retrieves a document type by id.
func (s *metadataStore) GetDocumentType(ctx context.Context, id int64) (*domain.DocumentType, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, matching_algorithm, match FROM document_types WHERE id = ?
	`, id)

	var dt domain.DocumentType
	var algorithm int
	if err := row.Scan(&dt.ID, &dt.Name, &algorithm, &dt.Expression); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document type: %w", err)
	}
	dt.Algorithm = domain.MatchingAlgorithm(algorithm)
	return &dt, nil
}

// ListDocumentTypes returns all document types ordered by id.
func (s *metadataStore) ListDocumentTypes(ctx context.Context) ([]domain.DocumentType, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, matching_algorithm, match FROM document_types ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying document types: %w", err)
	}
	defer rows.Close()

	var items []domain.DocumentType //nolint:prealloc // size unknown from query
	for rows.Next() {
		var dt domain.DocumentType
		var algorithm int
		if err := rows.Scan(&dt.ID, &dt.Name, &algorithm, &dt.Expression); err != nil {
			return nil, fmt.Errorf("scanning document type: %w", err)
		}
		dt.Algorithm = domain.MatchingAlgorithm(algorithm)
		items = append(items, dt)
	}
	return items, rows.Err()
}

// SaveDocumentType inserts or updates a document type.
func (s *metadataStore) SaveDocumentType(ctx context.Context, dt *domain.DocumentType) error {
	return s.saveRuleHolder(ctx, "document_types", &dt.ID, dt.Name, dt.MatchingRule)
}

// GetTag retrieves a tag by id.
func (s *metadataStore) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, color, matching_algorithm, match, is_inbox_tag
		FROM tags WHERE id = ?
	`, id)
	return scanTag(row.Scan)
}

// GetOrCreateTag looks a tag up by name, creating it when absent.
func (s *metadataStore) GetOrCreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	if _, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO tags (name) VALUES (?)
	`, name); err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}

	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, color, matching_algorithm, match, is_inbox_tag
		FROM tags WHERE name = ?
	`, name)
	return scanTag(row.Scan)
}

// ListTags returns all tags ordered by id.
func (s *metadataStore) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.queryTags(ctx, `
		SELECT id, name, color, matching_algorithm, match, is_inbox_tag
		FROM tags ORDER BY id`)
}

// ListInboxTags returns the tags flagged as inbox tags.
func (s *metadataStore) ListInboxTags(ctx context.Context) ([]domain.Tag, error) {
	return s.queryTags(ctx, `
		SELECT id, name, color, matching_algorithm, match, is_inbox_tag
		FROM tags WHERE is_inbox_tag = 1 ORDER BY id`)
}

// SaveTag inserts or updates a tag.
func (s *metadataStore) SaveTag(ctx context.Context, t *domain.Tag) error {
	if t.ID == 0 {
		res, err := s.store.db.ExecContext(ctx, `
			INSERT INTO tags (name, color, matching_algorithm, match, is_inbox_tag)
			VALUES (?, ?, ?, ?, ?)
		`, t.Name, t.Color, int(t.Algorithm), t.Expression, t.IsInboxTag)
		if err != nil {
			return fmt.Errorf("inserting tag: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading tag id: %w", err)
		}
		t.ID = id
		return nil
	}

	_, err := s.store.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, color = ?, matching_algorithm = ?, match = ?,
			is_inbox_tag = ?
		WHERE id = ?
	`, t.Name, t.Color, int(t.Algorithm), t.Expression, t.IsInboxTag, t.ID)
	if err != nil {
		return fmt.Errorf("updating tag: %w", err)
	}
	return nil
}

// queryTags runs a multi-row tag query.
func (s *metadataStore) queryTags(ctx context.Context, query string, args ...any) ([]domain.Tag, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag //nolint:prealloc // size unknown from query
	for rows.Next() {
		tag, err := scanTag(rows.Scan)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, rows.Err()
}

// saveRuleHolder inserts or updates a correspondent or document type row.
func (s *metadataStore) saveRuleHolder(
	ctx context.Context, table string, id *int64, name string, rule domain.MatchingRule,
) error {
	if *id == 0 {
		res, err := s.store.db.ExecContext(ctx,
			`INSERT INTO `+table+` (name, matching_algorithm, match) VALUES (?, ?, ?)`,
			name, int(rule.Algorithm), rule.Expression)
		if err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading %s id: %w", table, err)
		}
		*id = newID
		return nil
	}

	_, err := s.store.db.ExecContext(ctx,
		`UPDATE `+table+` SET name = ?, matching_algorithm = ?, match = ? WHERE id = ?`,
		name, int(rule.Algorithm), rule.Expression, *id)
	if err != nil {
		return fmt.Errorf("updating %s: %w", table, err)
	}
	return nil
}

// scanTag scans one tag row through the given scan function.
func scanTag(scan func(...any) error) (*domain.Tag, error) {
	var t domain.Tag
	var algorithm int
	if err := scan(&t.ID, &t.Name, &t.Color, &algorithm, &t.Expression, &t.IsInboxTag); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning tag: %w", err)
	}
	t.Algorithm = domain.MatchingAlgorithm(algorithm)
	return &t, nil
}
