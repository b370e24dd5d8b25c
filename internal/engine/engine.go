package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/journal"
	"github.com/roach88/diary/internal/store"
)

// DefaultPollInterval is how often Run checks the log for commands
// appended by other processes.
const DefaultPollInterval = time.Second

// Engine is the single-writer command loop.
//
// Thread-safety model:
//   - Schedule(): safe from any goroutine
//   - Run(), Drain(): serialized by mu; Run must be called from exactly one
//     goroutine
//
// INVARIANTS:
//   - state is touched only while holding mu
//   - head is the seq of the last final command reflected in state
type Engine struct {
	store     *store.Store
	clock     *Clock
	processor Processor
	queue     *commandQueue
	ids       IDGenerator
	logger    *slog.Logger
	poll      time.Duration

	mu    sync.Mutex
	state *journal.State
	head  int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the delivery clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the command id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithPollInterval sets how often Run polls the log.
// Zero disables polling; only in-process Schedule calls wake the loop.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.poll = d
	}
}

// New creates an Engine over the given store.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		clock:  NewClock(),
		queue:  newCommandQueue(),
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
		poll:   DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schedule appends cmd to the command log as a pending command issued by
// caller and wakes the Run loop. It performs no business validation: the
// outcome is decided later when the command is applied.
// Thread-safe: may be called from any goroutine.
func (e *Engine) Schedule(ctx context.Context, caller string, cmd ir.Command) (ir.CommandRecord, error) {
	rec := ir.CommandRecord{
		ID:          e.ids.Generate(),
		Caller:      caller,
		Command:     cmd,
		SubmittedAt: e.clock.Wall(),
		Status:      ir.StatusPending,
	}

	seq, err := e.store.AppendCommand(ctx, rec)
	if err != nil {
		return ir.CommandRecord{}, fmt.Errorf("schedule %s: %w", cmd.Kind, err)
	}
	rec.Seq = seq

	e.logger.Debug("command scheduled",
		"command_id", rec.ID,
		"seq", seq,
		"kind", cmd.Kind,
		"caller", caller,
	)

	// A closed queue only means no loop is running in this process; the
	// command stays pending in the log for the next Run or Drain.
	e.queue.Enqueue(seq)
	return rec, nil
}

// Run starts the single-writer loop.
// Blocks until the context is cancelled or Stop() is called.
//
// On start it applies every command already pending in the log. After that
// it wakes on Schedule calls and every poll interval.
//
// ERROR HANDLING: a rejected command is a normal outcome and is recorded in
// the log. An infrastructure failure is logged and processing continues;
// the affected command stays pending and is retried on the next wake-up.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "poll_interval", e.poll)

	e.process(ctx)

	var tick <-chan time.Time
	if e.poll > 0 {
		ticker := time.NewTicker(e.poll)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if _, ok := e.queue.DrainAll(); ok {
			e.process(ctx)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}

		case <-tick:
			e.process(ctx)
		}
	}
}

// Stop gracefully shuts down the engine.
// Closes the queue, which will cause Run() to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Drain applies every pending command once and returns how many were
// applied or rejected.
func (e *Engine) Drain(ctx context.Context) (int, error) {
	e.queue.DrainAll()
	return e.applyPending(ctx)
}

// process runs one batch from the Run loop, logging failures.
func (e *Engine) process(ctx context.Context) {
	n, err := e.applyPending(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.logger.Error("command batch failed", "processed", n, "error", err)
	}
}

// applyPending executes the pending commands in log order.
func (e *Engine) applyPending(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.sync(ctx); err != nil {
		return 0, err
	}

	pending, err := e.store.PendingCommands(ctx)
	if err != nil {
		return 0, fmt.Errorf("read pending commands: %w", err)
	}

	n := 0
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := e.apply(ctx, rec); err != nil {
			if errors.Is(err, store.ErrNotPending) {
				// Another engine got there first; resynchronize and move on.
				e.state = nil
				if err := e.sync(ctx); err != nil {
					return n, err
				}
				continue
			}
			e.state = nil
			return n, err
		}
		n++
	}
	return n, nil
}

// sync reloads the state from the store when it is missing or when the log
// head moved without this engine.
// CRITICAL: caller holds mu.
func (e *Engine) sync(ctx context.Context) error {
	head, err := e.store.Head(ctx)
	if err != nil {
		return err
	}
	if e.state != nil && head == e.head {
		return nil
	}

	st, err := e.store.LoadState(ctx)
	if err != nil {
		return err
	}
	last, err := e.store.LastDeliveredAt(ctx)
	if err != nil {
		return err
	}
	e.clock.Observe(last)

	if e.state != nil {
		e.logger.Info("state reloaded from store", "head", head, "previous_head", e.head)
	}
	e.state = st
	e.head = head
	return nil
}

// apply executes one command and commits its outcome.
// CRITICAL: caller holds mu.
func (e *Engine) apply(ctx context.Context, rec ir.CommandRecord) error {
	work := e.state.Clone()
	now := e.clock.Now()

	outcome, execErr := e.processor.Execute(work, rec.Command, rec.Caller, now)

	rec.DeliveredAt = now
	if execErr != nil {
		var de *ir.Error
		if !errors.As(execErr, &de) {
			return fmt.Errorf("execute command %s: %w", rec.ID, execErr)
		}
		rec.Status = ir.StatusRejected
		rec.ErrorCode = de.Code
		rec.ErrorMessage = de.Message
		rec.Changes = nil
	} else {
		rec.Status = ir.StatusApplied
		rec.Changes = work.Changes()
	}

	if err := e.store.CommitCommand(ctx, rec); err != nil {
		return err
	}
	e.head = rec.Seq

	if execErr != nil {
		e.logger.Warn("command rejected",
			"command_id", rec.ID,
			"seq", rec.Seq,
			"kind", rec.Command.Kind,
			"caller", rec.Caller,
			"error", execErr,
		)
		return nil
	}

	work.Reset()
	e.state = work
	e.logger.Info("command applied",
		"command_id", rec.ID,
		"seq", rec.Seq,
		"kind", rec.Command.Kind,
		"entry_id", outcome.EntryID,
		"changes", len(rec.Changes),
	)
	return nil
}
