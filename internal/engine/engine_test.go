package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/secret"
	"github.com/roach88/diary/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(dir + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(s *store.Store, opts ...Option) *Engine {
	base := []Option{
		WithClock(NewClockWithSource(frozen(1_000), 0)),
		WithLogger(quietLogger()),
		WithPollInterval(0),
	}
	return New(s, append(base, opts...)...)
}

func schedule(t *testing.T, e *Engine, caller string, cmd ir.Command) ir.CommandRecord {
	t.Helper()
	rec, err := e.Schedule(context.Background(), caller, cmd)
	require.NoError(t, err)
	return rec
}

func TestSchedule_AppendsPending(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(s, WithIDGenerator(NewFixedGenerator("cmd-1")))

	rec := schedule(t, e, owner, ir.NewInitialize(secret.Hash(phrase)))

	assert.Equal(t, "cmd-1", rec.ID)
	assert.Equal(t, ir.StatusPending, rec.Status)
	assert.Equal(t, uint64(1_000), rec.SubmittedAt)
	assert.Equal(t, 1, e.queue.Len())

	got, err := s.ReadCommand(context.Background(), "cmd-1")
	require.NoError(t, err)
	assert.Equal(t, ir.StatusPending, got.Status)
	assert.Equal(t, owner, got.Caller)

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Initialized, "scheduling alone never mutates state")
}

func TestDrain_AppliesInLogOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	e := newTestEngine(s, WithIDGenerator(NewFixedGenerator("c1", "c2", "c3", "c4")))

	schedule(t, e, owner, ir.NewInitialize(secret.Hash(phrase)))
	schedule(t, e, owner, ir.NewAddEntry(phrase, "first", "one"))
	schedule(t, e, owner, ir.NewAddEntry(phrase, "second", "two"))
	schedule(t, e, owner, ir.NewUpdateEntry(phrase, 0, nil, strPtr("uno")))

	n, err := e.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, ir.Status{Initialized: true, Owner: owner, EntryCount: 2, NextID: 2}, status)

	first, err := s.Entry(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "uno", first.Content)
	assert.Equal(t, uint64(1_003), first.Timestamp, "update refreshes the timestamp with the delivery time")

	second, err := s.Entry(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_002), second.Timestamp)

	pending, err := s.PendingCommands(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDrain_RecordsRejections(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	e := newTestEngine(s, WithIDGenerator(NewFixedGenerator("c1", "c2", "c3", "c4", "c5")))

	schedule(t, e, owner, ir.NewAddEntry(phrase, "early", "x"))
	schedule(t, e, owner, ir.NewInitialize(secret.Hash(phrase)))
	schedule(t, e, "mallory", ir.NewAddEntry(phrase, "intruder", "x"))
	schedule(t, e, owner, ir.NewAddEntry("wrong phrase", "typo", "x"))
	schedule(t, e, owner, ir.NewUpdateEntry(phrase, 9, strPtr("t"), nil))

	n, err := e.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	want := map[string]ir.Code{
		"c1": ir.CodeNotInitialized,
		"c2": "",
		"c3": ir.CodeNotOwner,
		"c4": ir.CodeInvalidSecret,
		"c5": ir.CodeEntryNotFound,
	}
	for id, code := range want {
		rec, err := s.ReadCommand(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, code, rec.ErrorCode, "command %s", id)
		if code == "" {
			assert.Equal(t, ir.StatusApplied, rec.Status)
		} else {
			assert.Equal(t, ir.StatusRejected, rec.Status)
			assert.Empty(t, rec.Changes)
		}
	}

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), status.EntryCount)
	assert.Equal(t, uint64(0), status.NextID, "rejected adds never consume an id")
}

func TestDrain_ScrubsSecrets(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	e := newTestEngine(s, WithIDGenerator(NewFixedGenerator("c1", "c2")))

	schedule(t, e, owner, ir.NewInitialize(secret.Hash(phrase)))
	schedule(t, e, owner, ir.NewAddEntry(phrase, "t", "c"))
	_, err := e.Drain(ctx)
	require.NoError(t, err)

	rec, err := s.ReadCommand(ctx, "c2")
	require.NoError(t, err)
	assert.Empty(t, rec.Command.AddEntry.Secret)
}

func TestDrain_ResumesClockAfterRestart(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	e1 := newTestEngine(s, WithIDGenerator(NewFixedGenerator("c1", "c2")))
	schedule(t, e1, owner, ir.NewInitialize(secret.Hash(phrase)))
	schedule(t, e1, owner, ir.NewAddEntry(phrase, "a", "a"))
	_, err := e1.Drain(ctx)
	require.NoError(t, err)

	// A second engine whose wall clock is behind the log.
	e2 := New(s,
		WithClock(NewClockWithSource(frozen(10), 0)),
		WithIDGenerator(NewFixedGenerator("c3")),
		WithLogger(quietLogger()),
		WithPollInterval(0),
	)
	schedule(t, e2, owner, ir.NewAddEntry(phrase, "b", "b"))
	_, err = e2.Drain(ctx)
	require.NoError(t, err)

	a, err := s.Entry(ctx, 0)
	require.NoError(t, err)
	b, err := s.Entry(ctx, 1)
	require.NoError(t, err)
	assert.Greater(t, b.Timestamp, a.Timestamp, "timestamps keep increasing across engines")
}

func TestDrain_SeesOtherWriters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	e1 := newTestEngine(s, WithIDGenerator(NewFixedGenerator("c1", "c3")))
	e2 := newTestEngine(s, WithIDGenerator(NewFixedGenerator("c2")))

	schedule(t, e1, owner, ir.NewInitialize(secret.Hash(phrase)))
	_, err := e1.Drain(ctx)
	require.NoError(t, err)

	schedule(t, e2, owner, ir.NewAddEntry(phrase, "from e2", "x"))
	_, err = e2.Drain(ctx)
	require.NoError(t, err)

	// e1's cached state is stale; it must reload before applying.
	schedule(t, e1, owner, ir.NewAddEntry(phrase, "from e1", "y"))
	_, err = e1.Drain(ctx)
	require.NoError(t, err)

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), status.EntryCount)
	assert.Equal(t, uint64(2), status.NextID, "ids are not reused by a stale engine")

	result, err := s.Replay(ctx)
	require.NoError(t, err)
	assert.True(t, result.Consistent(), "mismatches: %v", result.Mismatches)
}

func TestDrain_Empty(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(s)

	n, err := e.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRun_AppliesScheduledCommands(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(s, WithIDGenerator(NewFixedGenerator("c1", "c2")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	schedule(t, e, owner, ir.NewInitialize(secret.Hash(phrase)))
	schedule(t, e, owner, ir.NewAddEntry(phrase, "async", "body"))

	require.Eventually(t, func() bool {
		pending, err := s.PendingCommands(context.Background())
		return err == nil && len(pending) == 0
	}, 2*time.Second, 10*time.Millisecond)

	entry, err := s.Entry(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "async", entry.Title)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_RecoversPendingOnStart(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	scheduler := newTestEngine(s, WithIDGenerator(NewFixedGenerator("c1")))
	schedule(t, scheduler, owner, ir.NewInitialize(secret.Hash(phrase)))

	e := newTestEngine(s)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(runCtx) }()

	require.Eventually(t, func() bool {
		status, err := s.Status(ctx)
		return err == nil && status.Initialized
	}, 2*time.Second, 10*time.Millisecond)

	e.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after Stop")
	}
}

func TestRun_PollsForOtherProcesses(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := newTestEngine(s, WithPollInterval(20*time.Millisecond))
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	// Appended straight to the log, as another process would.
	other := newTestEngine(s, WithIDGenerator(NewFixedGenerator("c1")))
	schedule(t, other, owner, ir.NewInitialize(secret.Hash(phrase)))

	require.Eventually(t, func() bool {
		status, err := s.Status(context.Background())
		return err == nil && status.Initialized
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
