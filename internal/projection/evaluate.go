// Package projection serves the diary's read views.
//
// Views are pure: they never mutate state and require no authentication.
// Results are ordered newest first (timestamp descending, id descending)
// regardless of the backing Source.
package projection

import (
	"fmt"
	"sort"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/queryir"
)

// Evaluate applies a view to an unordered set of entries in memory.
// Returns an empty slice (not nil) when nothing matches.
//
// Evaluate is a pure function; entries is not modified.
func Evaluate(view queryir.View, entries []ir.Entry) ([]ir.Entry, error) {
	if err := queryir.Validate(view); err != nil {
		return nil, err
	}

	var keep func(ir.Entry) bool
	switch v := view.(type) {
	case queryir.All, queryir.Latest:
		keep = func(ir.Entry) bool { return true }
	case queryir.Range:
		keep = func(e ir.Entry) bool { return e.Timestamp >= v.Start && e.Timestamp <= v.End }
	case queryir.TitleSearch:
		keep = func(e ir.Entry) bool { return queryir.FoldContains(e.Title, v.Query) }
	case queryir.ContentSearch:
		keep = func(e ir.Entry) bool { return queryir.FoldContains(e.Content, v.Query) }
	default:
		return nil, fmt.Errorf("unsupported view type: %T", view)
	}

	out := make([]ir.Entry, 0, len(entries))
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	SortNewestFirst(out)

	if l, ok := view.(queryir.Latest); ok && len(out) > l.Limit {
		out = out[:l.Limit]
	}
	return out, nil
}

// SortNewestFirst orders entries by timestamp descending, then id
// descending.
func SortNewestFirst(entries []ir.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp > entries[j].Timestamp
		}
		return entries[i].ID > entries[j].ID
	})
}
