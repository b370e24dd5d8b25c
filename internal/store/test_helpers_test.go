package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/secret"
)

const testDigest = "5e884898da28047151d0e56f8dc6292773603d0d6aabbdd62a11ef721d1542d8"

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a pending record with minimal required fields.
func createTestRecord(id string, cmd ir.Command) ir.CommandRecord {
	return ir.CommandRecord{
		ID:          id,
		Caller:      "alice",
		Command:     cmd,
		SubmittedAt: 1_000,
		Status:      ir.StatusPending,
	}
}

// seedDiary appends and applies an Initialize plus the given entries.
func seedDiary(t *testing.T, s *Store, entries ...ir.Entry) {
	t.Helper()
	ctx := context.Background()

	initRec := createTestRecord("cmd-init", ir.NewInitialize(secret.Hash("password")))
	if _, err := s.AppendCommand(ctx, initRec); err != nil {
		t.Fatalf("AppendCommand() failed: %v", err)
	}
	initRec.Status = ir.StatusApplied
	initRec.DeliveredAt = 1
	initRec.Changes = []ir.Change{{Kind: ir.ChangeMeta, Meta: &ir.Meta{SecretDigest: testDigest, Owner: "alice"}}}
	if err := s.CommitCommand(ctx, initRec); err != nil {
		t.Fatalf("CommitCommand() failed: %v", err)
	}

	for _, e := range entries {
		e := e
		rec := createTestRecord("cmd-add-"+e.Title, ir.NewAddEntry("password", e.Title, e.Content))
		if _, err := s.AppendCommand(ctx, rec); err != nil {
			t.Fatalf("AppendCommand() failed: %v", err)
		}
		rec.Status = ir.StatusApplied
		rec.DeliveredAt = e.Timestamp
		rec.Changes = []ir.Change{
			{Kind: ir.ChangePut, Entry: &e},
			{Kind: ir.ChangeMeta, Meta: &ir.Meta{SecretDigest: testDigest, Owner: "alice", EntryCounter: e.ID + 1}},
		}
		if err := s.CommitCommand(ctx, rec); err != nil {
			t.Fatalf("CommitCommand() failed: %v", err)
		}
	}
}
