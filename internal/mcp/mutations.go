package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roach88/diary/internal/frontend"
)

// InitializeInput claims the diary.
type InitializeInput struct {
	SecretPhrase string `json:"secretPhrase" jsonschema:"secret phrase guarding every write, at least 8 characters"`
}

// AddEntryInput creates one entry.
type AddEntryInput struct {
	SecretPhrase string `json:"secretPhrase" jsonschema:"the diary secret phrase"`
	Title        string `json:"title" jsonschema:"entry title"`
	Content      string `json:"content" jsonschema:"entry body"`
}

// UpdateEntryInput changes the title, the content, or both.
type UpdateEntryInput struct {
	SecretPhrase string  `json:"secretPhrase" jsonschema:"the diary secret phrase"`
	ID           uint64  `json:"id" jsonschema:"entry identifier"`
	Title        *string `json:"title,omitempty" jsonschema:"new title, omit to keep"`
	Content      *string `json:"content,omitempty" jsonschema:"new content, omit to keep"`
}

// DeleteEntryInput removes one entry.
type DeleteEntryInput struct {
	SecretPhrase string `json:"secretPhrase" jsonschema:"the diary secret phrase"`
	ID           uint64 `json:"id" jsonschema:"entry identifier"`
}

// AddEntriesInput creates several entries in order.
type AddEntriesInput struct {
	SecretPhrase string                `json:"secretPhrase" jsonschema:"the diary secret phrase"`
	Entries      []frontend.BatchEntry `json:"entries" jsonschema:"entries to create, each with a title and content"`
}

// AddEntriesResult holds one acknowledgement per requested entry.
type AddEntriesResult struct {
	Results []frontend.Ack `json:"results" jsonschema:"one acknowledgement per entry, in request order"`
}

func registerMutationTools(server *sdkmcp.Server, mutations *frontend.Service) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "initialize",
		Description: "Claim the diary for the current user and set its secret phrase. Scheduled, not immediate",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in InitializeInput) (*sdkmcp.CallToolResult, frontend.Ack, error) {
		ack, err := mutations.Initialize(ctx, callerFromContext(ctx), in.SecretPhrase)
		return nil, ack, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_entry",
		Description: "Schedule a new entry",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddEntryInput) (*sdkmcp.CallToolResult, frontend.Ack, error) {
		ack, err := mutations.AddEntry(ctx, callerFromContext(ctx), in.SecretPhrase, in.Title, in.Content)
		return nil, ack, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_entry",
		Description: "Schedule an update of an entry's title and/or content",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateEntryInput) (*sdkmcp.CallToolResult, frontend.Ack, error) {
		ack, err := mutations.UpdateEntry(ctx, callerFromContext(ctx), in.SecretPhrase, in.ID, in.Title, in.Content)
		return nil, ack, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_entry",
		Description: "Schedule deletion of an entry. Deleting a missing id has no effect",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteEntryInput) (*sdkmcp.CallToolResult, frontend.Ack, error) {
		ack, err := mutations.DeleteEntry(ctx, callerFromContext(ctx), in.SecretPhrase, in.ID)
		return nil, ack, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_entries",
		Description: "Schedule several new entries. Items missing a title or content are reported and skipped",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddEntriesInput) (*sdkmcp.CallToolResult, AddEntriesResult, error) {
		acks, err := mutations.AddEntries(ctx, callerFromContext(ctx), in.SecretPhrase, in.Entries)
		return nil, AddEntriesResult{Results: acks}, err
	})
}
