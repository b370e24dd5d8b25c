// Package journal holds the diary aggregate: the secret digest, the owner,
// the entry counter and the entries keyed by id.
//
// A State is owned by exactly one writer. Every mutation is recorded as an
// ir.Change so the durable store can persist the delta of a single command.
package journal

import (
	"fmt"
	"sort"

	"github.com/roach88/diary/internal/ir"
)

// State is the diary aggregate.
//
// INVARIANTS:
//   - meta.SecretDigest is empty iff the diary is uninitialized
//   - meta.Owner is empty iff the diary is uninitialized
//   - every entry id is < meta.EntryCounter
//   - meta.EntryCounter never decreases
type State struct {
	meta    ir.Meta
	entries map[uint64]ir.Entry
	changes []ir.Change
}

// New returns an empty, uninitialized State.
func New() *State {
	return &State{entries: make(map[uint64]ir.Entry)}
}

// FromSnapshot rebuilds a State from persisted rows. No changes are recorded.
func FromSnapshot(meta ir.Meta, entries []ir.Entry) *State {
	s := &State{
		meta:    meta,
		entries: make(map[uint64]ir.Entry, len(entries)),
	}
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	return s
}

// Meta returns the scalar fields.
func (s *State) Meta() ir.Meta {
	return s.meta
}

// SecretDigest returns the stored digest, empty when uninitialized.
func (s *State) SecretDigest() string {
	return s.meta.SecretDigest
}

// Owner returns the owner identity, empty when uninitialized.
func (s *State) Owner() string {
	return s.meta.Owner
}

// IsInitialized reports whether a secret digest has been stored.
func (s *State) IsInitialized() bool {
	return s.meta.SecretDigest != ""
}

// Initialize stores the digest and owner and resets the counter to zero.
// The caller checks that the diary is not initialized yet.
func (s *State) Initialize(digest, owner string) {
	s.meta = ir.Meta{SecretDigest: digest, Owner: owner, EntryCounter: 0}
	s.recordMeta()
}

// NextID returns the id the next entry will get. It does not advance.
func (s *State) NextID() uint64 {
	return s.meta.EntryCounter
}

// AdvanceCounter moves the counter past id. It never moves it backwards.
func (s *State) AdvanceCounter(id uint64) {
	if id+1 <= s.meta.EntryCounter {
		return
	}
	s.meta.EntryCounter = id + 1
	s.recordMeta()
}

// Get returns the entry with the given id.
func (s *State) Get(id uint64) (ir.Entry, bool) {
	e, ok := s.entries[id]
	return e, ok
}

// Put inserts or replaces an entry.
func (s *State) Put(e ir.Entry) {
	s.entries[e.ID] = e
	entry := e
	s.changes = append(s.changes, ir.Change{Kind: ir.ChangePut, Entry: &entry})
}

// Remove deletes an entry. Removing an absent id records nothing and
// returns false.
func (s *State) Remove(id uint64) bool {
	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	s.changes = append(s.changes, ir.Change{Kind: ir.ChangeRemove, ID: id})
	return true
}

// Len returns the number of live entries.
func (s *State) Len() int {
	return len(s.entries)
}

// Status returns the header served by the query surface.
func (s *State) Status() ir.Status {
	return ir.Status{
		Initialized: s.IsInitialized(),
		Owner:       s.meta.Owner,
		EntryCount:  uint64(len(s.entries)),
		NextID:      s.meta.EntryCounter,
	}
}

// Entries returns a copy of all entries ordered by id.
// Always returns a non-nil slice.
func (s *State) Entries() []ir.Entry {
	out := make([]ir.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clone returns a deep copy without the recorded changes.
func (s *State) Clone() *State {
	c := &State{
		meta:    s.meta,
		entries: make(map[uint64]ir.Entry, len(s.entries)),
	}
	for id, e := range s.entries {
		c.entries[id] = e
	}
	return c
}

// Changes returns the changes recorded since the last Reset.
// Always returns a non-nil slice.
func (s *State) Changes() []ir.Change {
	out := make([]ir.Change, len(s.changes))
	copy(out, s.changes)
	return out
}

// Reset clears the recorded changes.
func (s *State) Reset() {
	s.changes = nil
}

// Apply folds previously recorded changes into the state without
// recording them again.
func (s *State) Apply(changes []ir.Change) error {
	for i, ch := range changes {
		switch ch.Kind {
		case ir.ChangeMeta:
			if ch.Meta == nil {
				return fmt.Errorf("change %d: meta change without meta", i)
			}
			if ch.Meta.EntryCounter < s.meta.EntryCounter {
				return fmt.Errorf("change %d: entry counter moves backwards (%d < %d)",
					i, ch.Meta.EntryCounter, s.meta.EntryCounter)
			}
			s.meta = *ch.Meta
		case ir.ChangePut:
			if ch.Entry == nil {
				return fmt.Errorf("change %d: put change without entry", i)
			}
			s.entries[ch.Entry.ID] = *ch.Entry
		case ir.ChangeRemove:
			delete(s.entries, ch.ID)
		default:
			return fmt.Errorf("change %d: unknown kind %q", i, ch.Kind)
		}
	}
	return nil
}

func (s *State) recordMeta() {
	m := s.meta
	s.changes = append(s.changes, ir.Change{Kind: ir.ChangeMeta, Meta: &m})
}
