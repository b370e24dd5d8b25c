package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/diary/internal/ir"
	"github.com/roach88/diary/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Status string
	Caller string
	Limit  int
}

// LogResult is the output of the log command.
type LogResult struct {
	Commands []ir.CommandRecord `json:"commands"`
	Count    int                `json:"count"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the command log",
		Long: `Show scheduled commands in execution order with their outcome.

Secret phrases are never shown: the log keeps them only while a command is
pending, and this command does not print payloads in text mode.`,
		Example: `  diary log
  diary log --status rejected
  diary log --caller mallory --limit 20 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (pending|applied|rejected)")
	cmd.Flags().StringVar(&opts.Caller, "caller", "", "filter by caller")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most n commands (0 = all)")

	return cmd
}

func runLog(cmd *cobra.Command, opts *LogOptions) error {
	filter := store.CommandFilter{
		Status: ir.CommandStatus(opts.Status),
		Caller: opts.Caller,
		Limit:  opts.Limit,
	}
	switch filter.Status {
	case "", ir.StatusPending, ir.StatusApplied, ir.StatusRejected:
	default:
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid status %q: must be pending, applied or rejected", opts.Status))
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}

	out := opts.formatter(cmd)
	return withQueries(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
		records, err := a.store.Commands(ctx, filter)
		if err != nil {
			return err
		}
		result := LogResult{Commands: records, Count: len(records)}
		for i := range result.Commands {
			result.Commands[i].Command = result.Commands[i].Command.Scrubbed()
		}
		return out.Success(result, func(w io.Writer) { writeLogText(w, records) })
	})
}

func writeLogText(w io.Writer, records []ir.CommandRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No commands.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tKIND\tCALLER\tSTATUS\tWHEN\tERROR")
	for _, rec := range records {
		when := "-"
		if rec.DeliveredAt > 0 {
			when = humanize.Time(microsToTime(rec.DeliveredAt))
		}
		errText := "-"
		if rec.ErrorCode != "" {
			errText = string(rec.ErrorCode)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", rec.Seq, rec.Command.Kind, rec.Caller, rec.Status, when, errText)
	}
	tw.Flush()
}
