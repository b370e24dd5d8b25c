// Package queryir defines the read views of the diary as a small sealed
// query language.
//
// Every view selects entries and returns them newest first: timestamp
// descending, ties broken by id descending. Two backends evaluate views:
// internal/projection in memory and internal/querysql over SQLite. Both use
// FoldContains for text search so their results agree.
package queryir
