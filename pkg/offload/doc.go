// Package offload stores tool results that do not fit a response budget and
// hands back an addressable handle of the form
//
//	callisto://resources/<uuid>
//
// # Backends
//
//   - Memory: map guarded by a sync.RWMutex, for tests and single-process use
//   - SQLite: durable store through database/sql. Two drivers are registered:
//     "sqlite" (modernc.org/sqlite, pure Go, default) and "sqlite3"
//     (github.com/mattn/go-sqlite3, cgo). Payloads may be zstd-compressed at
//     rest; the encoding is recorded per row.
//
// # Incremental Retrieval
//
// RetrieveRange returns a byte window of a stored payload and Query extracts
// a gjson path from a JSON payload, so callers can page through a large
// result instead of loading it whole.
//
// # Retention
//
// Prune removes resources created before a cutoff. The retention subpackage
// runs it on a cron schedule.
package offload
