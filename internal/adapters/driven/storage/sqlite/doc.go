// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - ReportStore: Report, chunk and status persistence
//   - ConversationStore: Append-only chat turn log
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// Chunk embeddings are stored as little-endian float32 blobs; chunks are
// keyed by (report_id, chunk_index) so a retried ingestion replaces rows
// instead of duplicating them.
//
// # Data Location
//
// By default, the database is stored at ~/.reportchat/data/reports.db
package sqlite
