// Package mirror materializes replayed entries into a SQLite table.
//
// The mirror is a listener: registered on an engine, it receives every newer
// entry during replay and upserts it with the same last-write-wins rule the
// bucket files use. The table is a query-friendly copy of the current state;
// the bucket files stay the source of truth and the mirror can be rebuilt at
// any time with InitStoredEntries.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Paths are stored twice: as a canonical JSON array for decoding, and as a
// unit-separator joined key for prefix queries.
package mirror
