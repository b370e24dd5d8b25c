// Package engine implements the diary's trusted mutation path.
//
// ARCHITECTURE:
//
// Single-Writer Command Loop:
// Scheduled commands are appended to the durable command log as pending
// rows. The engine applies them one at a time, in log order, from a single
// goroutine. This ensures:
//   - Commands never interleave: each sees the state left by the previous one
//   - Replay of the log reproduces the persisted state
//   - Simple reasoning about who wrote what
//
// Command Processing Flow:
//  1. Schedule appends a pending record and enqueues its seq
//  2. Run wakes on the queue or on the poll ticker
//  3. Pending records are read from the log in seq order
//  4. Processor executes each against a clone of the in-memory state
//  5. The log row and the state delta are committed in one transaction
//  6. On success the clone becomes the engine's state
//
// Commands appended by other processes are picked up by polling. Before each
// batch the engine compares the log head with its own position and reloads
// the state from the store when another writer moved it.
//
// Delivery timestamps come from Clock, which never repeats or goes back.
package engine
