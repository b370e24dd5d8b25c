package store

import (
	"context"
	"fmt"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/journal"
)

// ReplayResult summarizes a rebuild of the diary from the command log.
type ReplayResult struct {
	Applied  int
	Rejected int
	Pending  int

	// State is the diary rebuilt from the changes of applied commands.
	State *journal.State

	// Mismatches lists differences between the rebuilt and persisted state.
	// Empty when the two agree.
	Mismatches []string
}

// Consistent reports whether the rebuilt state matches the persisted one.
func (r ReplayResult) Consistent() bool {
	return len(r.Mismatches) == 0
}

// Replay folds the recorded changes of every applied command, in log
// order, into an empty state and compares the result with the persisted
// tables. Secrets are scrubbed from final payloads, so replay trusts the
// recorded changes instead of re-running commands.
func (s *Store) Replay(ctx context.Context) (ReplayResult, error) {
	records, err := s.Commands(ctx, CommandFilter{})
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	result := ReplayResult{State: journal.New(), Mismatches: []string{}}
	for _, rec := range records {
		switch rec.Status {
		case ir.StatusApplied:
			if err := result.State.Apply(rec.Changes); err != nil {
				return ReplayResult{}, fmt.Errorf("replay command %d (%s): %w", rec.Seq, rec.ID, err)
			}
			result.Applied++
		case ir.StatusRejected:
			result.Rejected++
		case ir.StatusPending:
			result.Pending++
		}
	}

	persisted, err := s.LoadState(ctx)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	result.Mismatches = diffStates(result.State, persisted)

	return result, nil
}

// diffStates describes how the rebuilt state differs from the persisted one.
func diffStates(rebuilt, persisted *journal.State) []string {
	diffs := []string{}

	if rebuilt.Meta() != persisted.Meta() {
		rm, pm := rebuilt.Meta(), persisted.Meta()
		if rm.SecretDigest != pm.SecretDigest {
			diffs = append(diffs, "secret digest differs")
		}
		if rm.Owner != pm.Owner {
			diffs = append(diffs, fmt.Sprintf("owner: log %q, table %q", rm.Owner, pm.Owner))
		}
		if rm.EntryCounter != pm.EntryCounter {
			diffs = append(diffs, fmt.Sprintf("entry counter: log %d, table %d", rm.EntryCounter, pm.EntryCounter))
		}
	}

	for _, e := range rebuilt.Entries() {
		p, ok := persisted.Get(e.ID)
		switch {
		case !ok:
			diffs = append(diffs, fmt.Sprintf("entry %d: missing from table", e.ID))
		case p != e:
			diffs = append(diffs, fmt.Sprintf("entry %d: differs", e.ID))
		}
	}
	for _, p := range persisted.Entries() {
		if _, ok := rebuilt.Get(p.ID); !ok {
			diffs = append(diffs, fmt.Sprintf("entry %d: not produced by the log", p.ID))
		}
	}

	return diffs
}
