// Package store provides SQLite-backed durable storage for form-filling
// sessions.
//
// The store holds:
//   - Sessions: one row per session_id with the full mutable session value
//   - Messages: append-only (timestamp, role, text) log per session
//
// Concurrency contract:
//   - Save uses an optimistic revision check; a mismatch returns ErrConflict.
//     Callers serialize turns per session (see internal/turn), so a conflict
//     indicates an out-of-band writer and is retried there.
//   - Turns on different sessions never block each other beyond SQLite's own
//     single-writer constraint.
//
// Database configuration:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: message rows are deleted with their session
package store
