package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/journal"
	"github.com/roach88/diary/internal/secret"
)

const (
	phrase = "correct horse"
	owner  = "alice"
)

func strPtr(s string) *string { return &s }

func initialized(t *testing.T) *journal.State {
	t.Helper()
	st := journal.New()
	_, err := Processor{}.Execute(st, ir.NewInitialize(secret.Hash(phrase)), owner, 1)
	require.NoError(t, err)
	st.Reset()
	return st
}

func add(t *testing.T, st *journal.State, title, content string, now uint64) uint64 {
	t.Helper()
	out, err := Processor{}.Execute(st, ir.NewAddEntry(phrase, title, content), owner, now)
	require.NoError(t, err)
	return out.EntryID
}

func TestInitialize_SetsOwnerAndSecret(t *testing.T) {
	st := journal.New()

	_, err := Processor{}.Execute(st, ir.NewInitialize(secret.Hash(phrase)), owner, 10)
	require.NoError(t, err)

	assert.True(t, st.IsInitialized())
	assert.Equal(t, owner, st.Owner())
	assert.Equal(t, secret.Hash(phrase), st.SecretDigest())
	assert.Equal(t, uint64(0), st.NextID())
}

func TestInitialize_Twice(t *testing.T) {
	st := initialized(t)

	_, err := Processor{}.Execute(st, ir.NewInitialize(secret.Hash("another phrase")), "mallory", 2)

	assert.ErrorIs(t, err, ir.ErrAlreadyInitialized)
	assert.Equal(t, owner, st.Owner(), "owner is immutable")
	assert.Equal(t, secret.Hash(phrase), st.SecretDigest())
}

func TestInitialize_RejectsMalformedDigest(t *testing.T) {
	st := journal.New()

	_, err := Processor{}.Execute(st, ir.NewInitialize("not-a-digest"), owner, 1)
	assert.ErrorIs(t, err, ir.ErrInvalidArgument)

	_, err = Processor{}.Execute(st, ir.NewInitialize(secret.Hash(phrase)), "", 1)
	assert.ErrorIs(t, err, ir.ErrInvalidArgument)

	assert.False(t, st.IsInitialized())
}

func TestAddEntry_AssignsSequentialIDs(t *testing.T) {
	st := initialized(t)

	id0 := add(t, st, "first", "one", 100)
	id1 := add(t, st, "second", "two", 200)

	assert.Equal(t, uint64(0), id0)
	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), st.NextID())

	e, ok := st.Get(1)
	require.True(t, ok)
	assert.Equal(t, ir.Entry{ID: 1, Title: "second", Content: "two", Timestamp: 200}, e)
}

func TestAddEntry_IDsNotReusedAfterDelete(t *testing.T) {
	st := initialized(t)
	add(t, st, "a", "a", 1)
	add(t, st, "b", "b", 2)

	_, err := Processor{}.Execute(st, ir.NewDeleteEntry(phrase, 1), owner, 3)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), add(t, st, "c", "c", 4))
}

func TestGate_CheckOrder(t *testing.T) {
	tests := []struct {
		name   string
		state  func(t *testing.T) *journal.State
		phrase string
		caller string
		want   *ir.Error
	}{
		{"uninitialized wins over everything", func(*testing.T) *journal.State { return journal.New() }, "wrong", "mallory", ir.ErrNotInitialized},
		{"secret checked before owner", initialized, "wrong", "mallory", ir.ErrInvalidSecret},
		{"wrong secret", initialized, "wrong", owner, ir.ErrInvalidSecret},
		{"empty secret", initialized, "", owner, ir.ErrInvalidSecret},
		{"not owner", initialized, phrase, "mallory", ir.ErrNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := []ir.Command{
				ir.NewAddEntry(tt.phrase, "t", "c"),
				ir.NewUpdateEntry(tt.phrase, 99, strPtr("t"), nil),
				ir.NewDeleteEntry(tt.phrase, 99),
			}
			for _, cmd := range cmds {
				st := tt.state(t)
				before := st.Clone()

				_, err := Processor{}.Execute(st, cmd, tt.caller, 5)

				assert.ErrorIs(t, err, tt.want, "command %s", cmd.Kind)
				assert.Equal(t, before.Meta(), st.Meta(), "rejected command must not mutate")
				assert.Equal(t, before.Entries(), st.Entries())
			}
		})
	}
}

func TestUpdateEntry_NotFoundAfterGate(t *testing.T) {
	st := initialized(t)

	_, err := Processor{}.Execute(st, ir.NewUpdateEntry(phrase, 7, strPtr("x"), nil), owner, 5)

	require.ErrorIs(t, err, ir.ErrEntryNotFound)
	var de *ir.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "7", de.Details["id"])
}

func TestUpdateEntry_PartialFields(t *testing.T) {
	st := initialized(t)
	id := add(t, st, "title", "content", 100)

	_, err := Processor{}.Execute(st, ir.NewUpdateEntry(phrase, id, nil, strPtr("new content")), owner, 200)
	require.NoError(t, err)

	e, _ := st.Get(id)
	assert.Equal(t, "title", e.Title, "omitted title keeps previous value")
	assert.Equal(t, "new content", e.Content)
	assert.Equal(t, uint64(200), e.Timestamp, "timestamp refreshed")

	_, err = Processor{}.Execute(st, ir.NewUpdateEntry(phrase, id, strPtr("new title"), nil), owner, 300)
	require.NoError(t, err)

	e, _ = st.Get(id)
	assert.Equal(t, ir.Entry{ID: id, Title: "new title", Content: "new content", Timestamp: 300}, e)
	assert.Equal(t, uint64(1), st.NextID(), "update never advances the counter")
}

func TestDeleteEntry_Removes(t *testing.T) {
	st := initialized(t)
	id := add(t, st, "t", "c", 1)

	_, err := Processor{}.Execute(st, ir.NewDeleteEntry(phrase, id), owner, 2)
	require.NoError(t, err)

	_, ok := st.Get(id)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), st.NextID(), "counter never decremented")
}

func TestDeleteEntry_AbsentIsNoop(t *testing.T) {
	st := initialized(t)
	add(t, st, "t", "c", 1)
	st.Reset()

	_, err := Processor{}.Execute(st, ir.NewDeleteEntry(phrase, 42), owner, 2)

	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
	assert.Empty(t, st.Changes())
}

func TestExecute_RecordsChanges(t *testing.T) {
	st := initialized(t)

	add(t, st, "t", "c", 9)

	changes := st.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, ir.ChangePut, changes[0].Kind)
	assert.Equal(t, ir.ChangeMeta, changes[1].Kind)
	assert.Equal(t, uint64(1), changes[1].Meta.EntryCounter)
}

func TestExecute_MalformedCommand(t *testing.T) {
	st := initialized(t)

	tests := []struct {
		name string
		cmd  ir.Command
	}{
		{"unknown kind", ir.Command{Kind: "rename_entry", AddEntry: &ir.AddEntry{}}},
		{"no payload", ir.Command{Kind: ir.KindAddEntry}},
		{"wrong payload", ir.Command{Kind: ir.KindAddEntry, DeleteEntry: &ir.DeleteEntry{}}},
		{"two payloads", ir.Command{Kind: ir.KindAddEntry, AddEntry: &ir.AddEntry{}, DeleteEntry: &ir.DeleteEntry{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Processor{}.Execute(st, tt.cmd, owner, 1)
			assert.ErrorIs(t, err, ir.ErrInvalidArgument)
		})
	}
}
