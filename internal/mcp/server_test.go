package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/diary/internal/engine"
	"github.com/roach88/diary/internal/frontend"
	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/projection"
	"github.com/roach88/diary/internal/store"
)

const (
	owner  = "alice"
	phrase = "correct horse"
)

type harness struct {
	engine  *engine.Engine
	session *sdkmcp.ClientSession
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := engine.New(s,
		engine.WithClock(engine.NewClockWithSource(func() uint64 { return 5_000 }, 0)),
		engine.WithLogger(logger),
		engine.WithPollInterval(0),
	)

	server := NewServer(Config{
		Queries:   projection.NewService(s),
		Mutations: frontend.NewService(e, logger),
		Identity:  owner,
		Logger:    logger,
	})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return &harness{engine: e, session: session}
}

func (h *harness) call(t *testing.T, name string, args any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := h.session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	return res
}

func (h *harness) drain(t *testing.T) {
	t.Helper()
	_, err := h.engine.Drain(context.Background())
	require.NoError(t, err)
}

func decodeStructuredContent[T any](t *testing.T, value any) T {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func errorText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestListTools(t *testing.T) {
	h := newHarness(t)

	res, err := h.session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"diary_status", "list_entries", "get_entry", "latest_entries",
		"entries_in_range", "search_by_title", "search_by_content",
		"initialize", "add_entry", "update_entry", "delete_entry", "add_entries",
	}, names)
}

func TestTools_WriteThenRead(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "initialize", map[string]any{"secretPhrase": phrase})
	require.False(t, res.IsError)
	ack := decodeStructuredContent[frontend.Ack](t, res.StructuredContent)
	assert.True(t, ack.Success)

	res = h.call(t, "add_entries", map[string]any{
		"secretPhrase": phrase,
		"entries": []map[string]string{
			{"title": "Garden", "content": "Planted tomatoes"},
			{"title": "Kitchen", "content": "Tomato soup"},
		},
	})
	require.False(t, res.IsError)
	batch := decodeStructuredContent[AddEntriesResult](t, res.StructuredContent)
	require.Len(t, batch.Results, 2)

	h.drain(t)

	status := decodeStructuredContent[ir.Status](t, h.call(t, "diary_status", map[string]any{}).StructuredContent)
	assert.True(t, status.Initialized)
	assert.Equal(t, owner, status.Owner)
	assert.Equal(t, uint64(2), status.EntryCount)
	assert.Equal(t, uint64(2), status.NextID)

	all := decodeStructuredContent[EntriesResult](t, h.call(t, "list_entries", map[string]any{}).StructuredContent)
	require.Len(t, all.Entries, 2)
	assert.Equal(t, "Kitchen", all.Entries[0].Title)

	found := decodeStructuredContent[EntriesResult](t, h.call(t, "search_by_content", map[string]any{"query": "TOMATO"}).StructuredContent)
	assert.Len(t, found.Entries, 2)

	latest := decodeStructuredContent[EntriesResult](t, h.call(t, "latest_entries", map[string]any{"limit": 1}).StructuredContent)
	require.Len(t, latest.Entries, 1)
	assert.Equal(t, "Kitchen", latest.Entries[0].Title)

	got := decodeStructuredContent[GetEntryResult](t, h.call(t, "get_entry", map[string]any{"id": 0}).StructuredContent)
	require.NotNil(t, got.Entry)
	assert.Equal(t, "Garden", got.Entry.Title)
}

func TestTools_UpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	h.call(t, "initialize", map[string]any{"secretPhrase": phrase})
	h.call(t, "add_entry", map[string]any{"secretPhrase": phrase, "title": "draft", "content": "text"})
	h.drain(t)

	res := h.call(t, "update_entry", map[string]any{"secretPhrase": phrase, "id": 0, "content": "final text"})
	require.False(t, res.IsError)
	h.drain(t)

	got := decodeStructuredContent[GetEntryResult](t, h.call(t, "get_entry", map[string]any{"id": 0}).StructuredContent)
	require.NotNil(t, got.Entry)
	assert.Equal(t, "draft", got.Entry.Title)
	assert.Equal(t, "final text", got.Entry.Content)

	h.call(t, "delete_entry", map[string]any{"secretPhrase": phrase, "id": 0})
	h.drain(t)

	got = decodeStructuredContent[GetEntryResult](t, h.call(t, "get_entry", map[string]any{"id": 0}).StructuredContent)
	assert.Nil(t, got.Entry)
}

func TestTools_ShapeErrorIsToolError(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "add_entry", map[string]any{"secretPhrase": phrase, "title": "", "content": "x"})

	assert.Contains(t, errorText(t, res), "Title cannot be empty")
}

func TestTools_InvalidQueryIsToolError(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "entries_in_range", map[string]any{"start": 10, "end": 1})

	assert.Contains(t, errorText(t, res), string(ir.CodeInvalidArgument))
}

func TestTools_WrongSecretIsRecordedNotReported(t *testing.T) {
	h := newHarness(t)
	h.call(t, "initialize", map[string]any{"secretPhrase": phrase})
	h.drain(t)

	res := h.call(t, "add_entry", map[string]any{"secretPhrase": "not the phrase", "title": "t", "content": "c"})
	require.False(t, res.IsError, "the reply only acknowledges scheduling")
	h.drain(t)

	status := decodeStructuredContent[ir.Status](t, h.call(t, "diary_status", map[string]any{}).StructuredContent)
	assert.Equal(t, uint64(0), status.EntryCount)
}
