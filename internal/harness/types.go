package harness

import (
	"fmt"

	"github.com/roach88/diary/internal/ir"
)

// TraceEvent is one command of the log as it stands after a scenario.
type TraceEvent struct {
	Seq         int64            `json:"seq"`
	ID          string           `json:"id"`
	Kind        ir.CommandKind   `json:"kind"`
	Caller      string           `json:"caller"`
	Status      ir.CommandStatus `json:"status"`
	Error       ir.Code          `json:"error,omitempty"`
	SubmittedAt uint64           `json:"submitted_at"`
	DeliveredAt uint64           `json:"delivered_at"`
	Changes     []string         `json:"changes,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace is the final command log in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Status is the diary header after the flow.
	Status ir.Status `json:"status"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// traceEvent converts a log record into its trace form.
func traceEvent(rec ir.CommandRecord) TraceEvent {
	ev := TraceEvent{
		Seq:         rec.Seq,
		ID:          rec.ID,
		Kind:        rec.Command.Kind,
		Caller:      rec.Caller,
		Status:      rec.Status,
		Error:       rec.ErrorCode,
		SubmittedAt: rec.SubmittedAt,
		DeliveredAt: rec.DeliveredAt,
	}
	for _, ch := range rec.Changes {
		ev.Changes = append(ev.Changes, describeChange(ch))
	}
	return ev
}

// describeChange renders a change as one line. Secret digests are left
// out so golden files stay readable.
func describeChange(ch ir.Change) string {
	switch ch.Kind {
	case ir.ChangeMeta:
		if ch.Meta == nil {
			return "meta"
		}
		return fmt.Sprintf("meta owner=%s counter=%d", ch.Meta.Owner, ch.Meta.EntryCounter)
	case ir.ChangePut:
		if ch.Entry == nil {
			return "put"
		}
		return fmt.Sprintf("put %d at %d: %s", ch.Entry.ID, ch.Entry.Timestamp, ch.Entry.Title)
	case ir.ChangeRemove:
		return fmt.Sprintf("remove %d", ch.ID)
	default:
		return string(ch.Kind)
	}
}
