// Package store keeps a SQLite history of test runs.
//
// Each run row carries fingerprints of its measurement and of its sorted
// outcomes, so two runs can be compared without reading their outcomes:
// equal measurement fingerprints mean the modules saw identical input, and
// equal outcome fingerprints mean they produced byte-identical results.
//
// # Patterns
//
// Logical ordering
//   - Runs are numbered by seq INTEGER (MAX+1 at insert), never timestamps
//   - Listing uses ORDER BY seq ASC, id ASC COLLATE BINARY
//
// Idempotency
//   - WriteRun on an existing run id is a no-op returning the stored record
//
// Exact values
//   - Quaternions and measurements are stored as canonical JSON, so NaN and
//     infinities survive a round trip (SQLite REAL would turn NaN into NULL)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
