package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/queryir"
	"github.com/roach88/diary/internal/querysql"
)

// Status returns the diary header from committed state.
func (s *Store) Status(ctx context.Context) (ir.Status, error) {
	meta, err := s.readMeta(ctx)
	if err != nil {
		return ir.Status{}, err
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		return ir.Status{}, fmt.Errorf("count entries: %w", err)
	}

	return ir.Status{
		Initialized: meta.SecretDigest != "",
		Owner:       meta.Owner,
		EntryCount:  uint64(count),
		NextID:      meta.EntryCounter,
	}, nil
}

// Entry returns the entry with the given id, or nil if none exists.
func (s *Store) Entry(ctx context.Context, id uint64) (*ir.Entry, error) {
	var (
		e     ir.Entry
		stamp int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT title, content, timestamp FROM entries WHERE id = ?
	`, int64(id)).Scan(&e.Title, &e.Content, &stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read entry %d: %w", id, err)
	}
	e.ID = id
	e.Timestamp = uint64(stamp)
	return &e, nil
}

// Entries evaluates a view against committed state.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Entries(ctx context.Context, view queryir.View) ([]ir.Entry, error) {
	query, params, err := querysql.Compile(view)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", queryir.Name(view), err)
	}
	defer rows.Close()

	return scanEntries(rows)
}
