package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/projection"
)

// AssertionContext holds what assertions are evaluated against.
type AssertionContext struct {
	Ctx context.Context

	// Persisted serves queries from the store's tables.
	Persisted *projection.Service

	// Replayed serves queries from the state rebuilt out of the log.
	// View assertions must agree on both.
	Replayed *projection.Service

	Trace []TraceEvent
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nCommand log:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s by %s: %s", ev.Seq, ev.Kind, ev.Caller, ev.Status)
			if ev.Error != "" {
				fmt.Fprintf(&buf, " (%s)", ev.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	errs := []string{}
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertStatus:
			err = assertStatus(actx, a)
		case AssertEntry:
			err = assertEntry(actx, a)
		case AssertView:
			err = assertView(actx, a)
		case AssertLogCount:
			err = assertLogCount(actx.Trace, a)
		case AssertLogOrder:
			err = assertLogOrder(actx.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertStatus compares the diary header, checking only the fields set.
func assertStatus(actx *AssertionContext, a Assertion) error {
	status, err := actx.Persisted.Status(actx.Ctx)
	if err != nil {
		return err
	}

	var diffs []string
	if a.Initialized != nil && status.Initialized != *a.Initialized {
		diffs = append(diffs, fmt.Sprintf("initialized=%t, want %t", status.Initialized, *a.Initialized))
	}
	if a.Owner != nil && status.Owner != *a.Owner {
		diffs = append(diffs, fmt.Sprintf("owner=%q, want %q", status.Owner, *a.Owner))
	}
	if a.EntryCount != nil && status.EntryCount != *a.EntryCount {
		diffs = append(diffs, fmt.Sprintf("entry_count=%d, want %d", status.EntryCount, *a.EntryCount))
	}
	if a.NextID != nil && status.NextID != *a.NextID {
		diffs = append(diffs, fmt.Sprintf("next_id=%d, want %d", status.NextID, *a.NextID))
	}
	if len(diffs) == 0 {
		return nil
	}

	return &AssertionError{
		Type:     AssertStatus,
		Expected: "status fields to match",
		Actual:   strings.Join(diffs, "; "),
		Trace:    actx.Trace,
	}
}

// assertEntry compares one entry, checking only the fields set.
func assertEntry(actx *AssertionContext, a Assertion) error {
	id := *a.ID
	entry, err := actx.Persisted.Get(actx.Ctx, id)
	if err != nil {
		return err
	}

	if a.Absent {
		if entry == nil {
			return nil
		}
		return &AssertionError{
			Type:     AssertEntry,
			Expected: fmt.Sprintf("no entry %d", id),
			Actual:   fmt.Sprintf("entry %d %q exists", id, entry.Title),
			Trace:    actx.Trace,
		}
	}

	if entry == nil {
		return &AssertionError{
			Type:     AssertEntry,
			Expected: fmt.Sprintf("entry %d", id),
			Actual:   "entry not found",
			Trace:    actx.Trace,
		}
	}

	var diffs []string
	if a.Title != nil && entry.Title != *a.Title {
		diffs = append(diffs, fmt.Sprintf("title=%q, want %q", entry.Title, *a.Title))
	}
	if a.Content != nil && entry.Content != *a.Content {
		diffs = append(diffs, fmt.Sprintf("content=%q, want %q", entry.Content, *a.Content))
	}
	if a.Timestamp != nil && entry.Timestamp != *a.Timestamp {
		diffs = append(diffs, fmt.Sprintf("timestamp=%d, want %d", entry.Timestamp, *a.Timestamp))
	}
	if len(diffs) == 0 {
		return nil
	}

	return &AssertionError{
		Type:     AssertEntry,
		Expected: fmt.Sprintf("entry %d fields to match", id),
		Actual:   strings.Join(diffs, "; "),
		Trace:    actx.Trace,
	}
}

// assertView evaluates the view on both the persisted and the replayed
// state and compares the returned ids, in order.
func assertView(actx *AssertionContext, a Assertion) error {
	view, err := a.View.toView()
	if err != nil {
		return err
	}

	persisted, err := actx.Persisted.View(actx.Ctx, view)
	if err != nil {
		return err
	}
	replayed, err := actx.Replayed.View(actx.Ctx, view)
	if err != nil {
		return err
	}

	got := entryIDs(persisted)
	if !slices.Equal(got, a.IDs) {
		return &AssertionError{
			Type:     AssertView,
			Expected: fmt.Sprintf("ids %v", a.IDs),
			Actual:   fmt.Sprintf("ids %v", got),
			Trace:    actx.Trace,
		}
	}
	if rebuilt := entryIDs(replayed); !slices.Equal(got, rebuilt) {
		return &AssertionError{
			Type:     AssertView,
			Expected: fmt.Sprintf("replayed state to return ids %v", got),
			Actual:   fmt.Sprintf("ids %v", rebuilt),
			Trace:    actx.Trace,
		}
	}
	return nil
}

// assertLogCount counts log records matching kind and status. Empty
// filters match every record.
func assertLogCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if a.Kind != "" && ev.Kind != a.Kind {
			continue
		}
		if a.Status != "" && ev.Status != a.Status {
			continue
		}
		count++
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertLogCount,
			Expected: fmt.Sprintf("%d records (kind=%q status=%q)", a.Count, a.Kind, a.Status),
			Actual:   fmt.Sprintf("%d records", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertLogOrder checks that the kinds occur in the log in the given
// order. Other records may appear in between.
func assertLogOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Kinds) && ev.Kind == a.Kinds[next] {
			next++
		}
	}
	if next == len(a.Kinds) {
		return nil
	}

	return &AssertionError{
		Type:     AssertLogOrder,
		Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
		Actual:   fmt.Sprintf("missing %s after position %d", a.Kinds[next], next),
		Trace:    trace,
	}
}

func entryIDs(entries []ir.Entry) []uint64 {
	ids := make([]uint64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
