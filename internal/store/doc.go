// Package store persists editing sessions and their transition logs in
// SQLite.
//
// The log is append-only and idempotent: writing the same (session, seq)
// twice is a no-op, so a crashed writer can safely re-append. Reads are
// ordered by seq, which makes replay deterministic - the replay command
// re-applies the logged transitions against a fresh state and checks that
// every recomputed snapshot hash matches the recorded one.
package store
