// Package querysql compiles queryir views to parameterized SQLite SQL over
// the entries table.
package querysql

import (
	"fmt"
	"math"

	"github.com/roach88/diary/internal/queryir"
)

// FoldContainsFunc is the SQL function the store registers on every
// connection. It wraps queryir.FoldContains.
const FoldContainsFunc = "fold_contains"

// OrderBy is appended to every compiled query.
const OrderBy = "ORDER BY timestamp DESC, id DESC"

const selectEntries = "SELECT id, title, content, timestamp FROM entries"

// Compile converts a view to parameterized SQL.
// Returns (sql, params, error).
//
// MANDATORY: Every query ends with OrderBy.
// MANDATORY: All values are parameterized, never interpolated.
func Compile(view queryir.View) (string, []any, error) {
	if err := queryir.Validate(view); err != nil {
		return "", nil, err
	}

	switch v := view.(type) {
	case queryir.All:
		return selectEntries + " " + OrderBy, []any{}, nil

	case queryir.Latest:
		return selectEntries + " " + OrderBy + " LIMIT ?", []any{int64(v.Limit)}, nil

	case queryir.Range:
		return selectEntries + " WHERE timestamp BETWEEN ? AND ? " + OrderBy,
			[]any{clamp(v.Start), clamp(v.End)}, nil

	case queryir.TitleSearch:
		return compileSearch("title", v.Query)

	case queryir.ContentSearch:
		return compileSearch("content", v.Query)

	default:
		return "", nil, fmt.Errorf("unsupported view type: %T", view)
	}
}

// compileSearch filters on a text column. An empty query compiles to the
// unfiltered select so the function is never called needlessly.
func compileSearch(column, query string) (string, []any, error) {
	if query == "" {
		return selectEntries + " " + OrderBy, []any{}, nil
	}
	sql := fmt.Sprintf("%s WHERE %s(%s, ?) %s", selectEntries, FoldContainsFunc, column, OrderBy)
	return sql, []any{query}, nil
}

// clamp maps a microsecond timestamp into SQLite's signed INTEGER range.
func clamp(ts uint64) int64 {
	if ts > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(ts)
}
