package engine

import (
	"strconv"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/journal"
	"github.com/roach88/diary/internal/secret"
)

// Processor validates one command against the diary state and applies it.
//
// Processor is stateless. It mutates st only when it returns a nil error,
// except that a failing command may leave st partially mutated; the Engine
// therefore always runs it against a clone.
//
// Checks run in a fixed order and the first failure wins:
// NOT_INITIALIZED, INVALID_SECRET, NOT_OWNER, then ENTRY_NOT_FOUND.
type Processor struct{}

// Execute runs cmd issued by caller with delivery timestamp now.
func (p Processor) Execute(st *journal.State, cmd ir.Command, caller string, now uint64) (ir.Outcome, error) {
	if err := cmd.Validate(); err != nil {
		return ir.Outcome{}, err
	}

	switch cmd.Kind {
	case ir.KindInitialize:
		return ir.Outcome{}, p.initialize(st, *cmd.Initialize, caller)
	case ir.KindAddEntry:
		return p.addEntry(st, *cmd.AddEntry, caller, now)
	case ir.KindUpdateEntry:
		return ir.Outcome{}, p.updateEntry(st, *cmd.UpdateEntry, caller, now)
	case ir.KindDeleteEntry:
		return ir.Outcome{}, p.deleteEntry(st, *cmd.DeleteEntry, caller)
	default:
		return ir.Outcome{}, ir.NewError(ir.CodeInvalidArgument, "unknown command kind %q", cmd.Kind)
	}
}

func (p Processor) initialize(st *journal.State, c ir.Initialize, caller string) error {
	if st.IsInitialized() {
		return ir.NewError(ir.CodeAlreadyInitialized, "diary already initialized")
	}
	if !secret.ValidDigest(c.SecretDigest) {
		return ir.NewError(ir.CodeInvalidArgument, "secret digest must be %d lowercase hex characters", secret.DigestLength)
	}
	if caller == "" {
		return ir.NewError(ir.CodeInvalidArgument, "caller identity is required")
	}
	st.Initialize(c.SecretDigest, caller)
	return nil
}

func (p Processor) addEntry(st *journal.State, c ir.AddEntry, caller string, now uint64) (ir.Outcome, error) {
	if err := authorize(st, c.Secret, caller); err != nil {
		return ir.Outcome{}, err
	}

	id := st.NextID()
	st.Put(ir.Entry{ID: id, Title: c.Title, Content: c.Content, Timestamp: now})
	st.AdvanceCounter(id)
	return ir.Outcome{EntryID: id}, nil
}

func (p Processor) updateEntry(st *journal.State, c ir.UpdateEntry, caller string, now uint64) error {
	if err := authorize(st, c.Secret, caller); err != nil {
		return err
	}

	entry, ok := st.Get(c.ID)
	if !ok {
		return ir.NewError(ir.CodeEntryNotFound, "entry %d not found", c.ID).
			WithDetail("id", strconv.FormatUint(c.ID, 10))
	}
	if c.Title != nil {
		entry.Title = *c.Title
	}
	if c.Content != nil {
		entry.Content = *c.Content
	}
	entry.Timestamp = now
	st.Put(entry)
	return nil
}

// deleteEntry removes the entry. An absent id succeeds without effect.
func (p Processor) deleteEntry(st *journal.State, c ir.DeleteEntry, caller string) error {
	if err := authorize(st, c.Secret, caller); err != nil {
		return err
	}
	st.Remove(c.ID)
	return nil
}

// authorize runs the three gate checks shared by entry commands.
func authorize(st *journal.State, phrase, caller string) error {
	if !st.IsInitialized() {
		return ir.NewError(ir.CodeNotInitialized, "diary not initialized")
	}
	if !secret.Verify(phrase, st.SecretDigest()) {
		return ir.NewError(ir.CodeInvalidSecret, "invalid secret phrase")
	}
	if caller != st.Owner() {
		return ir.NewError(ir.CodeNotOwner, "only the owner can modify entries")
	}
	return nil
}
