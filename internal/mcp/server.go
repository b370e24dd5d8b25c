// Package mcp exposes the diary as Model Context Protocol tools.
//
// Every query and mutation of the diary has one tool. Tool calls run as the
// configured local identity; there is no token exchange over stdio.
package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roach88/diary/internal/frontend"
	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/projection"
)

const serverInstructions = `A private diary with a single owner.

Reads (diary_status, list_entries, get_entry, latest_entries,
entries_in_range, search_by_title, search_by_content) return committed state.

Writes (initialize, add_entry, update_entry, delete_entry, add_entries) are
scheduled, not applied: a successful reply only means the request was
accepted. Whether the secret phrase and caller were valid is decided when the
command runs. Check diary_status or list_entries afterwards to see the result.

Timestamps are microseconds since the Unix epoch.`

// Config contains server configuration.
type Config struct {
	Queries   *projection.Service
	Mutations *frontend.Service

	// Identity is the caller every tool call runs as.
	Identity string

	Logger *slog.Logger
}

// NewServer creates an MCP server with every diary tool registered.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "diary",
		Version: ir.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	server.AddReceivingMiddleware(identityMiddleware(cfg.Identity))

	registerQueryTools(server, cfg.Queries)
	registerMutationTools(server, cfg.Mutations)

	return server
}

type contextKey int

const callerKey contextKey = iota

// callerFromContext extracts the caller set by identityMiddleware.
func callerFromContext(ctx context.Context) string {
	v, _ := ctx.Value(callerKey).(string)
	return v
}

// identityMiddleware attaches the configured identity to every request.
func identityMiddleware(identity string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, callerKey, identity)
			return next(ctx, method, req)
		}
	}
}
