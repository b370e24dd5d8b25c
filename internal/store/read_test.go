package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/queryir"
)

func seedEntries(t *testing.T) *Store {
	t.Helper()
	s := createTestStore(t)
	seedDiary(t, s,
		ir.Entry{ID: 0, Title: "Morning Run", Content: "5km by the river", Timestamp: 100},
		ir.Entry{ID: 1, Title: "Tea notes", Content: "Sencha, second steep", Timestamp: 300},
		ir.Entry{ID: 2, Title: "Evening run", Content: "Intervals", Timestamp: 200},
		ir.Entry{ID: 3, Title: "Same instant", Content: "tie", Timestamp: 300},
	)
	return s
}

func ids(entries []ir.Entry) []uint64 {
	out := make([]uint64, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestStatus(t *testing.T) {
	s := seedEntries(t)

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ir.Status{Initialized: true, Owner: "alice", EntryCount: 4, NextID: 4}, status)
}

func TestStatus_Uninitialized(t *testing.T) {
	s := createTestStore(t)

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Initialized)
	assert.Equal(t, uint64(0), status.EntryCount)
}

func TestEntry(t *testing.T) {
	s := seedEntries(t)
	ctx := context.Background()

	e, err := s.Entry(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, ir.Entry{ID: 1, Title: "Tea notes", Content: "Sencha, second steep", Timestamp: 300}, *e)

	missing, err := s.Entry(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEntries_Views(t *testing.T) {
	s := seedEntries(t)
	ctx := context.Background()

	tests := []struct {
		name string
		view queryir.View
		want []uint64
	}{
		{"all newest first, ties by id desc", queryir.All{}, []uint64{3, 1, 2, 0}},
		{"latest two", queryir.Latest{Limit: 2}, []uint64{3, 1}},
		{"latest more than exist", queryir.Latest{Limit: 10}, []uint64{3, 1, 2, 0}},
		{"range inclusive", queryir.Range{Start: 100, End: 200}, []uint64{2, 0}},
		{"range empty", queryir.Range{Start: 101, End: 199}, []uint64{}},
		{"title folds case", queryir.TitleSearch{Query: "RUN"}, []uint64{2, 0}},
		{"content search", queryir.ContentSearch{Query: "steep"}, []uint64{1}},
		{"empty query matches all", queryir.TitleSearch{}, []uint64{3, 1, 2, 0}},
		{"no match", queryir.ContentSearch{Query: "nothing"}, []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Entries(ctx, tt.view)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestEntries_InvalidView(t *testing.T) {
	s := seedEntries(t)

	_, err := s.Entries(context.Background(), queryir.Latest{Limit: 0})
	assert.ErrorIs(t, err, ir.ErrInvalidArgument)
}
