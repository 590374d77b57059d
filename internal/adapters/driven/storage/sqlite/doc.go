// Package sqlite provides the SQLite-based record store implementing the
// driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements the
// DocumentStore and MetadataStore interfaces through a single database
// connection.
//
// # Schema
//
// The database schema is managed through versioned migrations embedded from
// the migrations/ directory. Document ids come from an AUTOINCREMENT primary
// key, so they are monotonically assigned and never reused, even after
// deletions.
//
// # Observers
//
// SaveDocument notifies registered DocumentObservers synchronously after a
// successful commit of the record and its tag associations. The filename
// update path bypasses observers so the rename routine cannot retrigger
// itself.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
