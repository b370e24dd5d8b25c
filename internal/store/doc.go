// Package store provides SQLite-backed durable storage for the diary.
//
// The store holds two things:
//   - State: the diary_meta singleton and the entries table
//   - Log: the append-only commands table
//
// # Write Path
//
// Commands are appended as pending rows by any process. The engine commits
// each command with CommitCommand, which flips the row to applied or
// rejected and writes the command's state changes in the same transaction.
// Readers therefore never observe a half-applied command.
//
// # Deterministic Query Results
//
// Entry queries are compiled by internal/querysql and always end with
// ORDER BY timestamp DESC, id DESC. Log queries order by seq.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - fold_contains(text, query): case-folded substring match, registered
//     on every connection
package store
