package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/diary/internal/ir"
)

var (
	// ErrCommandNotFound is returned when no log row has the requested id.
	ErrCommandNotFound = errors.New("command not found")

	// ErrNotPending is returned when committing a command that is no longer
	// pending, typically because another engine already applied it.
	ErrNotPending = errors.New("command is not pending")
)

// CommandFilter narrows a log listing. Zero values mean no filter.
type CommandFilter struct {
	Status ir.CommandStatus
	Caller string
	Limit  int
}

const commandColumns = `seq, id, kind, caller, payload, submitted_at, delivered_at,
		status, error_code, error_message, changes`

// AppendCommand appends a pending command to the log and returns its seq.
//
// The record's ID must be unique. Seq, DeliveredAt, Status, error fields
// and Changes are assigned by the store and ignored here.
func (s *Store) AppendCommand(ctx context.Context, rec ir.CommandRecord) (int64, error) {
	if rec.ID == "" {
		return 0, fmt.Errorf("append command: id is required")
	}
	payload, err := marshalCommand(rec.Command)
	if err != nil {
		return 0, fmt.Errorf("append command: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO commands (id, kind, caller, payload, submitted_at, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		string(rec.Command.Kind),
		rec.Caller,
		payload,
		int64(rec.SubmittedAt),
		string(ir.StatusPending),
	)
	if err != nil {
		return 0, fmt.Errorf("append command %s: %w", rec.ID, err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append command %s: last insert id: %w", rec.ID, err)
	}
	return seq, nil
}

// PendingCommands returns every pending command in log order.
// Returns an empty slice (not nil) when nothing is pending.
func (s *Store) PendingCommands(ctx context.Context) ([]ir.CommandRecord, error) {
	return s.Commands(ctx, CommandFilter{Status: ir.StatusPending})
}

// Commands lists log records in seq order.
// Returns an empty slice (not nil) when no record matches.
func (s *Store) Commands(ctx context.Context, filter CommandFilter) ([]ir.CommandRecord, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Caller != "" {
		where = append(where, "caller = ?")
		args = append(args, filter.Caller)
	}

	query := "SELECT " + commandColumns + " FROM commands"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()

	records := []ir.CommandRecord{}
	for rows.Next() {
		rec, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commands: %w", err)
	}

	return records, nil
}

// ReadCommand returns the log record with the given id.
// Returns ErrCommandNotFound if it does not exist.
func (s *Store) ReadCommand(ctx context.Context, id string) (ir.CommandRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+commandColumns+" FROM commands WHERE id = ?", id)
	rec, err := scanCommand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.CommandRecord{}, fmt.Errorf("read command %s: %w", id, ErrCommandNotFound)
	}
	if err != nil {
		return ir.CommandRecord{}, fmt.Errorf("read command %s: %w", id, err)
	}
	return rec, nil
}

// CommitCommand records the final outcome of a pending command.
//
// In one transaction it flips the log row to rec.Status, stores the
// delivery time, error fields and changes, scrubs the plaintext secret
// from the payload, and, for applied commands, writes rec.Changes to the
// state tables. Returns ErrNotPending if the row was already final; in
// that case nothing is written.
func (s *Store) CommitCommand(ctx context.Context, rec ir.CommandRecord) error {
	if rec.Status != ir.StatusApplied && rec.Status != ir.StatusRejected {
		return fmt.Errorf("commit command %s: status %q is not final", rec.ID, rec.Status)
	}
	if rec.Status == ir.StatusRejected && len(rec.Changes) > 0 {
		return fmt.Errorf("commit command %s: rejected command carries changes", rec.ID)
	}

	payload, err := marshalCommand(rec.Command.Scrubbed())
	if err != nil {
		return fmt.Errorf("commit command %s: %w", rec.ID, err)
	}
	changes, err := marshalChanges(rec.Changes)
	if err != nil {
		return fmt.Errorf("commit command %s: %w", rec.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit command %s: begin: %w", rec.ID, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	res, err := tx.ExecContext(ctx, `
		UPDATE commands
		SET status = ?, delivered_at = ?, error_code = ?, error_message = ?, changes = ?, payload = ?
		WHERE id = ? AND status = ?
	`,
		string(rec.Status),
		int64(rec.DeliveredAt),
		string(rec.ErrorCode),
		rec.ErrorMessage,
		changes,
		payload,
		rec.ID,
		string(ir.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("commit command %s: update log: %w", rec.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("commit command %s: rows affected: %w", rec.ID, err)
	}
	if n != 1 {
		return fmt.Errorf("commit command %s: %w", rec.ID, ErrNotPending)
	}

	if err := writeChanges(ctx, tx, rec.Changes); err != nil {
		return fmt.Errorf("commit command %s: %w", rec.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit command %s: %w", rec.ID, err)
	}
	return nil
}

// Head returns the seq of the most recent final command, or 0.
// The engine compares it with its own position to detect commands
// applied by another process.
func (s *Store) Head(ctx context.Context) (int64, error) {
	var head sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM commands WHERE status != ?
	`, string(ir.StatusPending)).Scan(&head)
	if err != nil {
		return 0, fmt.Errorf("read head: %w", err)
	}
	return head.Int64, nil
}

// LastDeliveredAt returns the latest delivery timestamp in the log, or 0.
func (s *Store) LastDeliveredAt(ctx context.Context) (uint64, error) {
	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(delivered_at) FROM commands").Scan(&last); err != nil {
		return 0, fmt.Errorf("read last delivery: %w", err)
	}
	return uint64(last.Int64), nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCommand(row scanner) (ir.CommandRecord, error) {
	var (
		rec                         ir.CommandRecord
		kind, payload, status, code string
		changes                     string
		submittedAt, deliveredAt    int64
	)
	if err := row.Scan(&rec.Seq, &rec.ID, &kind, &rec.Caller, &payload, &submittedAt, &deliveredAt,
		&status, &code, &rec.ErrorMessage, &changes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.CommandRecord{}, err
		}
		return ir.CommandRecord{}, fmt.Errorf("scan command: %w", err)
	}

	cmd, err := unmarshalCommand(payload)
	if err != nil {
		return ir.CommandRecord{}, fmt.Errorf("command %s: %w", rec.ID, err)
	}
	if string(cmd.Kind) != kind {
		return ir.CommandRecord{}, fmt.Errorf("command %s: kind column %q disagrees with payload %q", rec.ID, kind, cmd.Kind)
	}
	rec.Command = cmd
	rec.SubmittedAt = uint64(submittedAt)
	rec.DeliveredAt = uint64(deliveredAt)
	rec.Status = ir.CommandStatus(status)
	rec.ErrorCode = ir.Code(code)

	rec.Changes, err = unmarshalChanges(changes)
	if err != nil {
		return ir.CommandRecord{}, fmt.Errorf("command %s: %w", rec.ID, err)
	}
	return rec, nil
}
