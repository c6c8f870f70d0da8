// Package sqlite provides the SQLite-backed local term store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// A single terms table is keyed by the lower-cased, trimmed keyword.
//
// # Data Location
//
// By default, the database is stored at ~/.medterm/data/medterm.db
//
// # Thread Safety
//
// Reads run concurrently in WAL mode. Writes are serialised by a process-wide
// lock and each runs in its own transaction, so a mutation is durable before
// the call returns.
package sqlite
