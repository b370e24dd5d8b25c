package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/diary/internal/engine"
	"github.com/roach88/diary/internal/frontend"
	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/projection"
	"github.com/roach88/diary/internal/store"
	"github.com/roach88/diary/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and command ids.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	frontend *frontend.Service
	clock    *testutil.DeterministicClock
	logger   *slog.Logger
	caller   string
}

// stepCommands records which commands a flow step scheduled.
type stepCommands struct {
	index int
	step  FlowStep
	ids   []string
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Send each flow step to the front end, applying its commands unless held
// 2. Apply anything still pending
// 3. Check step expectations against the command log
// 4. Replay the log and compare with the persisted state
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	start := scenario.Start
	if start == 0 {
		start = DefaultStart
	}
	clock := testutil.NewDeterministicClock(start)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	eng := engine.New(st,
		engine.WithClock(engine.NewClockWithSource(clock.Now, 0)),
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("cmd")),
		engine.WithLogger(logger),
		engine.WithPollInterval(0),
	)

	h := &Harness{
		store:    st,
		engine:   eng,
		frontend: frontend.NewService(eng, logger),
		clock:    clock,
		logger:   logger,
		caller:   scenario.Caller,
	}

	ctx := context.Background()
	result := NewResult()

	steps, err := h.executeFlow(ctx, scenario.Flow, result)
	if err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}
	if _, err := eng.Drain(ctx); err != nil {
		return nil, fmt.Errorf("failed to apply pending commands: %w", err)
	}

	records, err := st.Commands(ctx, store.CommandFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to read command log: %w", err)
	}
	for _, rec := range records {
		result.Trace = append(result.Trace, traceEvent(rec))
	}

	if err := h.checkExpectations(ctx, steps, result); err != nil {
		return nil, err
	}

	replay, err := st.Replay(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to replay command log: %w", err)
	}
	for _, m := range replay.Mismatches {
		result.AddError("replay: " + m)
	}

	persisted := projection.NewService(st)
	result.Status, err = persisted.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}

	actx := &AssertionContext{
		Ctx:       ctx,
		Persisted: persisted,
		Replayed:  projection.NewService(projection.Memory{State: replay.State}),
		Trace:     result.Trace,
	}
	for _, errMsg := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeFlow sends every step to the front end.
//
// A shape error is compared with the step's expect clause and never stops
// the flow. Any other error aborts the run.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) ([]stepCommands, error) {
	steps := make([]stepCommands, 0, len(flow))

	for i, step := range flow {
		h.clock.Advance(step.Advance)

		acks, err := h.send(ctx, step)
		var de *ir.Error
		switch {
		case errors.As(err, &de) && de.Code == ir.CodeShapeValidationFailed:
			if step.Expect == nil || step.Expect.ShapeError == "" {
				result.AddError(fmt.Sprintf("flow[%d] %s: unexpected shape error: %s", i, step.Request, de.Message))
			} else if step.Expect.ShapeError != de.Message {
				result.AddError(fmt.Sprintf("flow[%d] %s: expected shape error %q, got %q",
					i, step.Request, step.Expect.ShapeError, de.Message))
			}
			continue
		case err != nil:
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}

		if step.Expect != nil && step.Expect.ShapeError != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected shape error %q, request was accepted",
				i, step.Request, step.Expect.ShapeError))
		}

		sc := stepCommands{index: i, step: step}
		for _, ack := range acks {
			if ack.CommandID != "" {
				sc.ids = append(sc.ids, ack.CommandID)
			}
		}
		steps = append(steps, sc)

		if !step.Hold {
			if _, err := h.engine.Drain(ctx); err != nil {
				return nil, fmt.Errorf("flow step %d: apply: %w", i, err)
			}
		}

		h.logger.Info("flow step completed",
			"step", i,
			"request", step.Request,
			"commands", len(sc.ids),
		)
	}

	return steps, nil
}

// send issues one step to the front end.
func (h *Harness) send(ctx context.Context, step FlowStep) ([]frontend.Ack, error) {
	caller := step.Caller
	if caller == "" {
		caller = h.caller
	}

	var (
		ack frontend.Ack
		err error
	)
	switch step.Request {
	case RequestInitialize:
		ack, err = h.frontend.Initialize(ctx, caller, step.Secret)
	case RequestAddEntry:
		ack, err = h.frontend.AddEntry(ctx, caller, step.Secret, deref(step.Title), deref(step.Content))
	case RequestUpdateEntry:
		ack, err = h.frontend.UpdateEntry(ctx, caller, step.Secret, step.ID, step.Title, step.Content)
	case RequestDeleteEntry:
		ack, err = h.frontend.DeleteEntry(ctx, caller, step.Secret, step.ID)
	case RequestAddEntries:
		return h.frontend.AddEntries(ctx, caller, step.Secret, step.Entries)
	default:
		return nil, fmt.Errorf("unknown request %q", step.Request)
	}
	if err != nil {
		return nil, err
	}
	return []frontend.Ack{ack}, nil
}

// checkExpectations compares each step's commands with its expect clause.
func (h *Harness) checkExpectations(ctx context.Context, steps []stepCommands, result *Result) error {
	for _, sc := range steps {
		exp := sc.step.Expect
		if exp == nil || (exp.Status == "" && exp.Code == "") {
			continue
		}
		if len(sc.ids) == 0 {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected a command, none was scheduled", sc.index, sc.step.Request))
			continue
		}

		for _, id := range sc.ids {
			rec, err := h.store.ReadCommand(ctx, id)
			if err != nil {
				return fmt.Errorf("flow step %d: %w", sc.index, err)
			}
			if exp.Status != "" && rec.Status != exp.Status {
				result.AddError(fmt.Sprintf("flow[%d] %s (%s): expected status %s, got %s",
					sc.index, sc.step.Request, id, exp.Status, rec.Status))
			}
			if exp.Code != "" && rec.ErrorCode != exp.Code {
				result.AddError(fmt.Sprintf("flow[%d] %s (%s): expected code %s, got %q",
					sc.index, sc.step.Request, id, exp.Code, rec.ErrorCode))
			}
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
