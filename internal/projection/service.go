package projection

import (
	"context"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/journal"
	"github.com/roach88/diary/internal/queryir"
)

// Source is committed diary state that views can be evaluated against.
// Implemented by *store.Store (SQLite) and Memory.
type Source interface {
	Status(ctx context.Context) (ir.Status, error)
	Entry(ctx context.Context, id uint64) (*ir.Entry, error)
	Entries(ctx context.Context, view queryir.View) ([]ir.Entry, error)
}

// Memory adapts an in-memory journal.State to Source.
// The caller must not mutate the state while Memory is in use.
type Memory struct {
	State *journal.State
}

// Status implements Source.
func (m Memory) Status(context.Context) (ir.Status, error) {
	return m.State.Status(), nil
}

// Entry implements Source.
func (m Memory) Entry(_ context.Context, id uint64) (*ir.Entry, error) {
	e, ok := m.State.Get(id)
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// Entries implements Source.
func (m Memory) Entries(_ context.Context, view queryir.View) ([]ir.Entry, error) {
	return Evaluate(view, m.State.Entries())
}

// Service exposes the query surface over a Source.
type Service struct {
	source Source
}

// NewService creates a Service.
func NewService(source Source) *Service {
	return &Service{source: source}
}

// Status returns the diary header.
func (s *Service) Status(ctx context.Context) (ir.Status, error) {
	return s.source.Status(ctx)
}

// Get returns the entry with the given id, or nil if it does not exist.
func (s *Service) Get(ctx context.Context, id uint64) (*ir.Entry, error) {
	return s.source.Entry(ctx, id)
}

// ListAll returns every entry, newest first.
func (s *Service) ListAll(ctx context.Context) ([]ir.Entry, error) {
	return s.View(ctx, queryir.All{})
}

// Latest returns the n newest entries. n must be positive.
func (s *Service) Latest(ctx context.Context, n int) ([]ir.Entry, error) {
	return s.View(ctx, queryir.Latest{Limit: n})
}

// InRange returns entries with start <= timestamp <= end.
// start must not exceed end.
func (s *Service) InRange(ctx context.Context, start, end uint64) ([]ir.Entry, error) {
	return s.View(ctx, queryir.Range{Start: start, End: end})
}

// SearchByTitle returns entries whose title contains q, ignoring case.
func (s *Service) SearchByTitle(ctx context.Context, q string) ([]ir.Entry, error) {
	return s.View(ctx, queryir.TitleSearch{Query: q})
}

// SearchByContent returns entries whose content contains q, ignoring case.
func (s *Service) SearchByContent(ctx context.Context, q string) ([]ir.Entry, error) {
	return s.View(ctx, queryir.ContentSearch{Query: q})
}

// View evaluates an arbitrary view after validating it.
func (s *Service) View(ctx context.Context, view queryir.View) ([]ir.Entry, error) {
	if err := queryir.Validate(view); err != nil {
		return nil, err
	}
	return s.source.Entries(ctx, view)
}
