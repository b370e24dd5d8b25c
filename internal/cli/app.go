package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/diary/internal/config"
	"github.com/roach88/diary/internal/engine"
	"github.com/roach88/diary/internal/frontend"
	"github.com/roach88/diary/internal/projection"
	"github.com/roach88/diary/internal/store"
)

// app wires the store, engine and request surfaces for one command.
type app struct {
	cfg       config.Config
	store     *store.Store
	engine    *engine.Engine
	mutations *frontend.Service
	queries   *projection.Service
	logger    *slog.Logger
}

// openApp opens the configured database. With mustExist set a missing
// database file is a command error instead of being created.
func openApp(cfg config.Config, logger *slog.Logger, mustExist bool) (*app, error) {
	if mustExist && cfg.DB.Path != ":memory:" {
		if _, err := os.Stat(cfg.DB.Path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", cfg.DB.Path))
			}
			return nil, WrapExitError(ExitCommandError, "failed to stat database", err)
		}
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
	}

	st, err := store.Open(cfg.DB.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	eng := engine.New(st,
		engine.WithLogger(logger),
		engine.WithPollInterval(cfg.Engine.PollInterval),
	)

	return &app{
		cfg:       cfg,
		store:     st,
		engine:    eng,
		mutations: frontend.NewService(eng, logger),
		queries:   projection.NewService(st),
		logger:    logger,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// oneShotLogger returns the logger for commands that exit after one step.
// Engine chatter is suppressed unless --verbose is set.
func (o *RootOptions) oneShotLogger(w io.Writer, cfg config.Config) *slog.Logger {
	if o.Verbose {
		return o.newLogger(w, cfg)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
