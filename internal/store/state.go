package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/journal"
)

// LoadState reads the persisted diary into a fresh journal.State.
func (s *Store) LoadState(ctx context.Context) (*journal.State, error) {
	meta, err := s.readMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	entries, err := s.allEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return journal.FromSnapshot(meta, entries), nil
}

// readMeta returns the meta singleton, or the zero Meta when the diary
// was never initialized.
func (s *Store) readMeta(ctx context.Context) (ir.Meta, error) {
	var (
		meta    ir.Meta
		counter int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT secret_digest, owner, entry_counter FROM diary_meta WHERE id = 1
	`).Scan(&meta.SecretDigest, &meta.Owner, &counter)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Meta{}, nil
	}
	if err != nil {
		return ir.Meta{}, fmt.Errorf("read meta: %w", err)
	}
	meta.EntryCounter = uint64(counter)
	return meta, nil
}

// allEntries returns every entry ordered by id.
func (s *Store) allEntries(ctx context.Context) ([]ir.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, timestamp FROM entries ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// writeChanges applies a command's changes to the state tables inside tx.
func writeChanges(ctx context.Context, tx *sql.Tx, changes []ir.Change) error {
	for i, ch := range changes {
		switch ch.Kind {
		case ir.ChangeMeta:
			if ch.Meta == nil {
				return fmt.Errorf("change %d: meta change without meta", i)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO diary_meta (id, secret_digest, owner, entry_counter)
				VALUES (1, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					secret_digest = excluded.secret_digest,
					owner = excluded.owner,
					entry_counter = excluded.entry_counter
			`, ch.Meta.SecretDigest, ch.Meta.Owner, int64(ch.Meta.EntryCounter))
			if err != nil {
				return fmt.Errorf("write meta: %w", err)
			}

		case ir.ChangePut:
			if ch.Entry == nil {
				return fmt.Errorf("change %d: put change without entry", i)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO entries (id, title, content, timestamp)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					title = excluded.title,
					content = excluded.content,
					timestamp = excluded.timestamp
			`, int64(ch.Entry.ID), ch.Entry.Title, ch.Entry.Content, int64(ch.Entry.Timestamp))
			if err != nil {
				return fmt.Errorf("write entry %d: %w", ch.Entry.ID, err)
			}

		case ir.ChangeRemove:
			if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", int64(ch.ID)); err != nil {
				return fmt.Errorf("delete entry %d: %w", ch.ID, err)
			}

		default:
			return fmt.Errorf("change %d: unknown kind %q", i, ch.Kind)
		}
	}
	return nil
}

// scanEntries drains rows of (id, title, content, timestamp).
// Always returns a non-nil slice.
func scanEntries(rows *sql.Rows) ([]ir.Entry, error) {
	entries := []ir.Entry{}
	for rows.Next() {
		var (
			e         ir.Entry
			id, stamp int64
		)
		if err := rows.Scan(&id, &e.Title, &e.Content, &stamp); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.ID = uint64(id)
		e.Timestamp = uint64(stamp)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
