// Package frontend is the untrusted request surface for mutations.
//
// It checks only the shape of a request (non-empty fields, minimum phrase
// length) and hands well-formed commands to a Scheduler. It never reads
// diary state and never decides ownership or secret validity; those are
// settled later when the command is applied. An Ack therefore reports the
// scheduling outcome only.
package frontend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/secret"
)

// Scheduler accepts commands for later, asynchronous application.
// Implemented by *engine.Engine.
type Scheduler interface {
	Schedule(ctx context.Context, caller string, cmd ir.Command) (ir.CommandRecord, error)
}

// Ack is the immediate reply to a mutation request.
type Ack struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	CommandID string `json:"commandId,omitempty"`
}

// BatchEntry is one item of an AddEntries request.
type BatchEntry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

const pleaseWait = "Please wait for the operation to be executed."

// Service validates mutation requests and schedules them.
type Service struct {
	scheduler Scheduler
	logger    *slog.Logger
}

// NewService creates a Service. A nil logger uses slog.Default().
func NewService(scheduler Scheduler, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{scheduler: scheduler, logger: logger}
}

// Initialize schedules diary initialization. Only the digest of phrase is
// scheduled; the phrase itself goes no further.
func (s *Service) Initialize(ctx context.Context, caller, phrase string) (Ack, error) {
	if err := checkCaller(caller); err != nil {
		return Ack{}, err
	}
	if phrase == "" {
		return Ack{}, shapeError("Secret phrase cannot be empty")
	}
	if len([]rune(phrase)) < secret.MinPhraseLength {
		return Ack{}, shapeError(fmt.Sprintf("Secret phrase must be at least %d characters", secret.MinPhraseLength))
	}

	return s.schedule(ctx, caller, ir.NewInitialize(secret.Hash(phrase)),
		"Diary initialization scheduled. "+pleaseWait)
}

// AddEntry schedules creation of an entry.
func (s *Service) AddEntry(ctx context.Context, caller, phrase, title, content string) (Ack, error) {
	if err := checkCaller(caller); err != nil {
		return Ack{}, err
	}
	if phrase == "" {
		return Ack{}, shapeError("Secret phrase cannot be empty")
	}
	if title == "" {
		return Ack{}, shapeError("Title cannot be empty")
	}
	if content == "" {
		return Ack{}, shapeError("Content cannot be empty")
	}

	return s.schedule(ctx, caller, ir.NewAddEntry(phrase, title, content),
		fmt.Sprintf("Entry '%s' creation scheduled. %s", title, pleaseWait))
}

// UpdateEntry schedules a partial update. Nil fields are left unchanged;
// at least one must be supplied and supplied fields must be non-empty.
func (s *Service) UpdateEntry(ctx context.Context, caller, phrase string, id uint64, title, content *string) (Ack, error) {
	if err := checkCaller(caller); err != nil {
		return Ack{}, err
	}
	if phrase == "" {
		return Ack{}, shapeError("Secret phrase cannot be empty")
	}
	if title == nil && content == nil {
		return Ack{}, shapeError("Must provide at least title or content to update")
	}
	if title != nil && *title == "" {
		return Ack{}, shapeError("Title cannot be empty")
	}
	if content != nil && *content == "" {
		return Ack{}, shapeError("Content cannot be empty")
	}

	return s.schedule(ctx, caller, ir.NewUpdateEntry(phrase, id, title, content),
		fmt.Sprintf("Entry %d update scheduled. %s", id, pleaseWait))
}

// DeleteEntry schedules deletion of an entry.
func (s *Service) DeleteEntry(ctx context.Context, caller, phrase string, id uint64) (Ack, error) {
	if err := checkCaller(caller); err != nil {
		return Ack{}, err
	}
	if phrase == "" {
		return Ack{}, shapeError("Secret phrase cannot be empty")
	}

	return s.schedule(ctx, caller, ir.NewDeleteEntry(phrase, id),
		fmt.Sprintf("Entry %d deletion scheduled. %s", id, pleaseWait))
}

// AddEntries schedules one AddEntry per item, in order. Items with an
// empty title or content yield a failed Ack without stopping the batch.
// The whole request fails only when the phrase, caller or list is empty.
func (s *Service) AddEntries(ctx context.Context, caller, phrase string, entries []BatchEntry) ([]Ack, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}
	if phrase == "" {
		return nil, shapeError("Secret phrase cannot be empty")
	}
	if len(entries) == 0 {
		return nil, shapeError("No entries provided")
	}

	acks := make([]Ack, 0, len(entries))
	for _, e := range entries {
		if e.Title == "" || e.Content == "" {
			acks = append(acks, Ack{Success: false, Message: "Title and content cannot be empty"})
			continue
		}
		ack, err := s.schedule(ctx, caller, ir.NewAddEntry(phrase, e.Title, e.Content),
			fmt.Sprintf("Entry '%s' scheduled", e.Title))
		if err != nil {
			return acks, err
		}
		acks = append(acks, ack)
	}
	return acks, nil
}

func (s *Service) schedule(ctx context.Context, caller string, cmd ir.Command, message string) (Ack, error) {
	rec, err := s.scheduler.Schedule(ctx, caller, cmd)
	if err != nil {
		s.logger.Error("schedule failed", "kind", cmd.Kind, "caller", caller, "error", err)
		return Ack{}, err
	}
	return Ack{Success: true, Message: message, CommandID: rec.ID}, nil
}

func checkCaller(caller string) error {
	if caller == "" {
		return shapeError("Caller identity is required")
	}
	return nil
}

func shapeError(message string) *ir.Error {
	return &ir.Error{Code: ir.CodeShapeValidationFailed, Message: message}
}
