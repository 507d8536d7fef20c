// Package store provides a SQLite archive of token database snapshots.
//
// Token database files only hold the latest state. The archive keeps every
// snapshot written to it so a token can be resolved against older builds:
//   - Snapshots: one row per archived database, identified by a UUIDv7
//   - Entries: the (token, string, date_removed) rows of each snapshot
//
// # Ordering
//
// Snapshots are ordered by seq INTEGER, assigned on insert. Queries never
// order by wall time. Entry queries use the canonical token database order:
// token ASC, date_removed DESC with present rows first, string ASC.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
