package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ReplayOutput is the output of the replay command.
type ReplayOutput struct {
	Applied    int      `json:"applied"`
	Rejected   int      `json:"rejected"`
	Pending    int      `json:"pending"`
	Entries    int      `json:"entries"`
	Consistent bool     `json:"consistent"`
	Mismatches []string `json:"mismatches"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the diary from the command log and verify it",
		Long: `Rebuild the diary by folding the recorded changes of every applied
command, in log order, and compare the result with the persisted state.

Exit codes:
  0 - Rebuilt state matches the persisted state
  1 - Mismatch found
  2 - Command error (database not found, etc.)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			return withQueries(cmd, rootOpts, func(ctx context.Context, a *app) error {
				res, err := a.store.Replay(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "replay failed", err)
				}

				output := ReplayOutput{
					Applied:    res.Applied,
					Rejected:   res.Rejected,
					Pending:    res.Pending,
					Entries:    res.State.Len(),
					Consistent: res.Consistent(),
					Mismatches: res.Mismatches,
				}

				if !output.Consistent {
					if err := out.Error("E_REPLAY_MISMATCH",
						fmt.Sprintf("%d mismatch(es) between log and state", len(output.Mismatches)),
						output); err != nil {
						return err
					}
					if out.Format != "json" {
						for _, m := range output.Mismatches {
							fmt.Fprintf(out.Writer, "  %s\n", m)
						}
					}
					return NewExitError(ExitFailure, "replay mismatch")
				}

				return out.Success(output, func(w io.Writer) {
					fmt.Fprintf(w, "Replayed %d applied, %d rejected, %d pending command(s).\n",
						output.Applied, output.Rejected, output.Pending)
					fmt.Fprintf(w, "✓ State consistent (%d %s)\n", output.Entries, plural(output.Entries, "entry", "entries"))
				})
			})
		},
	}
}
