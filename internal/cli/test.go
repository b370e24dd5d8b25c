package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/diary/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run scenario files against a fresh in-memory diary.

Each scenario drives requests through the front end and engine, checks its
assertions on both the persisted and the replayed state, and compares the
command trace with golden/<name>.golden next to the scenarios directory.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)`,
		Example: `  diary test ./internal/harness/testdata/scenarios
  diary test ./scenarios --filter "owner-*"
  diary test ./scenarios --update
  diary test ./scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(cmd *cobra.Command, opts *TestOptions, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	result, err := harness.RunSuite(dir, harness.SuiteOptions{Filter: opts.Filter, Update: opts.Update})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	out := opts.formatter(cmd)
	if result.Failed > 0 {
		message := fmt.Sprintf("%d scenario(s) failed", result.Failed)
		if out.Format == "json" {
			if err := out.Error("E_TEST_FAILED", message, result); err != nil {
				return err
			}
		} else {
			writeSuiteText(out.Writer, result)
		}
		return NewExitError(ExitFailure, message)
	}

	return out.Success(result, func(w io.Writer) { writeSuiteText(w, result) })
}

func writeSuiteText(w io.Writer, result *harness.SuiteResult) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	for _, s := range result.Scenarios {
		if s.Pass {
			if s.Golden == "updated" {
				fmt.Fprintf(w, "✓ %s (golden updated)\n", s.Name)
			} else {
				fmt.Fprintf(w, "✓ %s\n", s.Name)
			}
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}
