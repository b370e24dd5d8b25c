// Package ir provides the shared vocabulary of the diary: entries, commands,
// command log records, state changes and the error taxonomy.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Entry IDs are uint64 and never reused; they come from the entry counter,
//     never from the number of live entries
//   - Timestamps are microseconds since the Unix epoch, stamped by the engine
//     clock at delivery time
//   - JSON tags use the camelCase names of the public query surface
package ir
