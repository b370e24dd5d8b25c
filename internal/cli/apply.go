package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ApplyResult is the output of the apply command.
type ApplyResult struct {
	Processed int `json:"processed"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply every pending command once and exit",
		Long: `Run the engine over the pending commands in log order and exit.

Use this when commands were scheduled without a running "diary serve".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			a, err := openApp(cfg, rootOpts.oneShotLogger(cmd.ErrOrStderr(), cfg), true)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.engine.Drain(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "apply failed", err)
			}
			return rootOpts.formatter(cmd).Success(ApplyResult{Processed: n}, func(w io.Writer) {
				fmt.Fprintf(w, "Processed %d pending %s.\n", n, plural(n, "command", "commands"))
			})
		},
	}
}
