package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/projection"
)

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

// EntriesResult wraps a list of entries, newest first.
type EntriesResult struct {
	Entries []ir.Entry `json:"entries" jsonschema:"entries ordered newest first"`
}

// GetEntryInput selects one entry.
type GetEntryInput struct {
	ID uint64 `json:"id" jsonschema:"entry identifier"`
}

// GetEntryResult holds the entry, or null when it does not exist.
type GetEntryResult struct {
	Entry *ir.Entry `json:"entry" jsonschema:"the entry, or null if no entry has this id"`
}

// LatestInput bounds the number of entries returned.
type LatestInput struct {
	Limit int `json:"limit" jsonschema:"maximum number of entries, must be positive"`
}

// RangeInput selects entries by timestamp, inclusive on both ends.
type RangeInput struct {
	Start uint64 `json:"start" jsonschema:"earliest timestamp in microseconds"`
	End   uint64 `json:"end" jsonschema:"latest timestamp in microseconds"`
}

// SearchInput is a case-insensitive substring query.
type SearchInput struct {
	Query string `json:"query" jsonschema:"substring to match, case-insensitive; empty matches everything"`
}

func registerQueryTools(server *sdkmcp.Server, queries *projection.Service) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "diary_status",
		Description: "Report whether the diary is initialized, its owner, entry count and next entry id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyInput) (*sdkmcp.CallToolResult, ir.Status, error) {
		status, err := queries.Status(ctx)
		return nil, status, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_entries",
		Description: "List every entry, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyInput) (*sdkmcp.CallToolResult, EntriesResult, error) {
		entries, err := queries.ListAll(ctx)
		return nil, EntriesResult{Entries: entries}, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_entry",
		Description: "Get one entry by id. Returns null when the id does not exist",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetEntryInput) (*sdkmcp.CallToolResult, GetEntryResult, error) {
		entry, err := queries.Get(ctx, in.ID)
		return nil, GetEntryResult{Entry: entry}, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "latest_entries",
		Description: "List the most recent entries, newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in LatestInput) (*sdkmcp.CallToolResult, EntriesResult, error) {
		entries, err := queries.Latest(ctx, in.Limit)
		return nil, EntriesResult{Entries: entries}, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "entries_in_range",
		Description: "List entries whose timestamp falls within [start, end], newest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RangeInput) (*sdkmcp.CallToolResult, EntriesResult, error) {
		entries, err := queries.InRange(ctx, in.Start, in.End)
		return nil, EntriesResult{Entries: entries}, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_by_title",
		Description: "List entries whose title contains the query, ignoring case",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SearchInput) (*sdkmcp.CallToolResult, EntriesResult, error) {
		entries, err := queries.SearchByTitle(ctx, in.Query)
		return nil, EntriesResult{Entries: entries}, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_by_content",
		Description: "List entries whose content contains the query, ignoring case",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SearchInput) (*sdkmcp.CallToolResult, EntriesResult, error) {
		entries, err := queries.SearchByContent(ctx, in.Query)
		return nil, EntriesResult{Entries: entries}, err
	})
}
