// Package fts implements the search index port on SQLite FTS5.
//
// The index lives in its own database file, separate from the record
// store, because it is derived state: every entry can be rebuilt from
// the document records, so a corrupt or missing index file is recreated
// empty instead of failing startup.
//
// One FTS5 virtual table holds the indexed fields plus unindexed
// metadata columns. A companion fts5vocab table exposes term statistics
// for spelling suggestions, autocompletion and similarity queries.
//
// Writes are serialised through a single internal writer. Bulk
// operations batch their mutations through BeginBatch so the index is
// committed once per batch rather than once per document.
package fts
