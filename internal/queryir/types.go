package queryir

// View is a read view over the diary entries.
//
// This is a sealed interface - only types in this package implement it.
// The marker method enables exhaustive type switches in backends.
//
// View types:
//   - All: every entry
//   - Latest: the N newest entries
//   - Range: entries with Start <= timestamp <= End
//   - TitleSearch: entries whose title contains Query
//   - ContentSearch: entries whose content contains Query
type View interface {
	viewNode()
}

// All selects every entry.
type All struct{}

// Latest selects the Limit newest entries. Limit must be positive.
type Latest struct {
	Limit int
}

// Range selects entries with Start <= timestamp <= End (microseconds,
// both bounds inclusive). Start must not exceed End.
type Range struct {
	Start uint64
	End   uint64
}

// TitleSearch selects entries whose title contains Query, compared under
// Unicode case folding. An empty Query matches every entry.
type TitleSearch struct {
	Query string
}

// ContentSearch selects entries whose content contains Query, compared
// under Unicode case folding. An empty Query matches every entry.
type ContentSearch struct {
	Query string
}

func (All) viewNode()           {}
func (Latest) viewNode()        {}
func (Range) viewNode()         {}
func (TitleSearch) viewNode()   {}
func (ContentSearch) viewNode() {}
