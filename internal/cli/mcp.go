package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/diary/internal/mcp"
)

// NewMCPCommand creates the mcp command.
func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the diary as MCP tools over stdio",
		Long: `Run the command engine and an MCP server on stdin/stdout.

Every tool call runs as the configured identity. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runMCP(ctx, cmd, rootOpts)
		},
	}
}

func runMCP(ctx context.Context, cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.newLogger(cmd.ErrOrStderr(), cfg)

	a, err := openApp(cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcp.NewServer(mcp.Config{
		Queries:   a.queries,
		Mutations: a.mutations,
		Identity:  cfg.Identity,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.engine.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("mcp server starting", "identity", cfg.Identity)
		err := server.Run(gctx, &sdkmcp.StdioTransport{})
		// Client disconnect ends the session; stop the engine with it.
		a.engine.Stop()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "mcp server failed", err)
	}
	return nil
}
