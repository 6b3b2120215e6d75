// Package sqlite persists index snapshots in a SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A snapshot is written as three tables:
//
//   - documents: document records in insertion order, with their soft-delete flag
//   - chunks: chunk text, position metadata and the embedding as a little-endian float32 blob
//   - index_meta: embedding dimension and save timestamp
//
// Save rewrites all three tables in one transaction, so a reader never observes a
// partially written snapshot.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.ragcore/data/index.db
package sqlite
