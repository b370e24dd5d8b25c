package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/diary/internal/ir"
)

// EntriesResult wraps an entry listing.
type EntriesResult struct {
	Entries []ir.Entry `json:"entries"`
	Count   int        `json:"count"`
}

// withQueries opens an existing database for reading and runs fn.
func withQueries(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cfg, opts.oneShotLogger(cmd.ErrOrStderr(), cfg), true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the diary is initialized, its owner and entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withQueries(cmd, rootOpts, func(ctx context.Context, a *app) error {
				status, err := a.queries.Status(ctx)
				if err != nil {
					return err
				}
				return out.Success(status, func(w io.Writer) {
					if !status.Initialized {
						fmt.Fprintln(w, "Diary is not initialized.")
						return
					}
					fmt.Fprintf(w, "Owner:   %s\n", status.Owner)
					fmt.Fprintf(w, "Entries: %s\n", humanize.Comma(int64(status.EntryCount)))
					fmt.Fprintf(w, "Next id: %d\n", status.NextID)
				})
			})
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every entry, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueries(cmd, rootOpts, func(ctx context.Context, a *app) error {
				entries, err := a.queries.ListAll(ctx)
				return outputEntries(rootOpts.formatter(cmd), entries, err)
			})
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			out := rootOpts.formatter(cmd)
			return withQueries(cmd, rootOpts, func(ctx context.Context, a *app) error {
				entry, err := a.queries.Get(ctx, id)
				if err != nil {
					return err
				}
				if entry == nil {
					if err := out.Error(string(ir.CodeEntryNotFound), fmt.Sprintf("entry %d not found", id), nil); err != nil {
						return err
					}
					return NewExitError(ExitFailure, fmt.Sprintf("entry %d not found", id))
				}
				return out.Success(entry, func(w io.Writer) { writeEntry(w, *entry, true) })
			})
		},
	}
}

// NewLatestCommand creates the latest command.
func NewLatestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "latest <n>",
		Short: "Show the n newest entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid count %q: must be an integer", args[0]))
			}
			return withQueries(cmd, rootOpts, func(ctx context.Context, a *app) error {
				entries, err := a.queries.Latest(ctx, n)
				return outputEntries(rootOpts.formatter(cmd), entries, err)
			})
		},
	}
}

// NewRangeCommand creates the range command.
func NewRangeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "range <start> <end>",
		Short: "Show entries whose timestamp falls in [start, end]",
		Long: `Show entries whose timestamp falls in the inclusive range [start, end].

Timestamps are microseconds since the Unix epoch.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseTimestamp(args[0])
			if err != nil {
				return err
			}
			end, err := parseTimestamp(args[1])
			if err != nil {
				return err
			}
			return withQueries(cmd, rootOpts, func(ctx context.Context, a *app) error {
				entries, err := a.queries.InRange(ctx, start, end)
				return outputEntries(rootOpts.formatter(cmd), entries, err)
			})
		},
	}
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find entries by case-insensitive substring",
		Example: `  diary search --title monday
  diary search --content "rain"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			byTitle := cmd.Flags().Changed("title")
			byContent := cmd.Flags().Changed("content")
			if byTitle == byContent {
				return NewExitError(ExitCommandError, "exactly one of --title or --content is required")
			}
			return withQueries(cmd, rootOpts, func(ctx context.Context, a *app) error {
				search, q := a.queries.SearchByTitle, title
				if byContent {
					search, q = a.queries.SearchByContent, content
				}
				entries, err := search(ctx, q)
				return outputEntries(rootOpts.formatter(cmd), entries, err)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "search titles")
	cmd.Flags().StringVar(&content, "content", "", "search contents")
	return cmd
}

func outputEntries(out *OutputFormatter, entries []ir.Entry, err error) error {
	if err != nil {
		return out.DiaryError(err)
	}
	result := EntriesResult{Entries: entries, Count: len(entries)}
	return out.Success(result, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No entries.")
			return
		}
		for _, e := range entries {
			writeEntry(w, e, false)
		}
		fmt.Fprintf(w, "\n%s %s\n", humanize.Comma(int64(len(entries))), plural(len(entries), "entry", "entries"))
	})
}

// writeEntry prints one entry. Without full, content is cut to one line.
func writeEntry(w io.Writer, e ir.Entry, full bool) {
	fmt.Fprintf(w, "#%d  %s  (%s)\n", e.ID, e.Title, humanize.Time(microsToTime(e.Timestamp)))
	if full {
		fmt.Fprintln(w, e.Content)
		return
	}
	fmt.Fprintf(w, "    %s\n", firstLine(e.Content, 72))
}

func firstLine(s string, width int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	if r := []rune(s); len(r) > width {
		return string(r[:width-1]) + "…"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func parseTimestamp(s string) (uint64, error) {
	ts, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid timestamp %q: must be microseconds since the epoch", s))
	}
	return ts, nil
}
