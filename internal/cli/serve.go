package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/diary/internal/auth"
	"github.com/roach88/diary/internal/mcp"
	"github.com/roach88/diary/internal/transport/httpapi"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
	MCP  bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and the HTTP API",
		Long: `Run the command engine and serve the diary over HTTP.

Queries are served under /v1. Mutations are scheduled and applied by the
engine in the same process. With auth enabled in the config, mutations need
a bearer token issued by "diary token".`,
		Example: `  diary serve
  diary serve --addr 127.0.0.1:9000 --db ./diary.db
  diary serve --mcp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&opts.MCP, "mcp", false, "also serve MCP over streamable HTTP at /mcp")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.newLogger(cmd.ErrOrStderr(), cfg)

	var resolver httpapi.IdentityResolver
	if cfg.Auth.Enabled {
		if opts.MCP {
			return NewExitError(ExitCommandError, "--mcp cannot be combined with auth: MCP calls carry no token")
		}
		authority, err := auth.NewAuthority([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to configure auth", err)
		}
		resolver = authority
	}

	a, err := openApp(cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var handler http.Handler = httpapi.NewHandler(httpapi.Config{
		Queries:   a.queries,
		Mutations: a.mutations,
		Resolver:  resolver,
		Identity:  cfg.Identity,
		Logger:    logger,
	})
	if opts.MCP {
		mcpServer := mcp.NewServer(mcp.Config{
			Queries:   a.queries,
			Mutations: a.mutations,
			Identity:  cfg.Identity,
			Logger:    logger,
		})
		mcpHandler := sdkmcp.NewStreamableHTTPHandler(
			func(r *http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		)
		mux := http.NewServeMux()
		mux.Handle("/", handler)
		mux.Handle("/mcp", mcpHandler)
		mux.Handle("/mcp/", mcpHandler)
		handler = mux
	}

	addr := cfg.Addr()
	if opts.Addr != "" {
		addr = opts.Addr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.engine.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled, "mcp", opts.MCP)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "server failed", err)
	}
	return nil
}
