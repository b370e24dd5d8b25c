package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/diary/internal/frontend"
	"github.com/roach88/diary/internal/ir"
)

// SecretEnv is read when --secret is not given.
const SecretEnv = "DIARY_SECRET"

// WriteOptions holds flags shared by commands that schedule mutations.
type WriteOptions struct {
	*RootOptions
	Caller string // identity to act as (default: config identity)
	Secret string
	Apply  bool // apply pending commands before returning
}

// WriteResult is the output of a mutation command.
type WriteResult struct {
	Acks     []frontend.Ack     `json:"acks"`
	Commands []ir.CommandRecord `json:"commands,omitempty"` // final records, with --apply only
}

func (o *WriteOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Caller, "as", "", "caller identity (default: config identity)")
	cmd.Flags().StringVar(&o.Secret, "secret", "", "secret phrase (default $"+SecretEnv+")")
	cmd.Flags().BoolVar(&o.Apply, "apply", false, "apply pending commands and report the outcome")
}

func (o *WriteOptions) secret() string {
	if o.Secret != "" {
		return o.Secret
	}
	return os.Getenv(SecretEnv)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Schedule diary initialization",
		Long: `Schedule initialization of an empty diary.

The caller becomes the owner and the secret phrase becomes the diary secret.
Only the SHA-256 digest of the phrase is stored.`,
		Example: `  diary init --secret "correct horse battery staple"
  diary init --as alice --apply`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, opts, func(ctx context.Context, a *app, caller string) ([]frontend.Ack, error) {
				ack, err := a.mutations.Initialize(ctx, caller, opts.secret())
				return []frontend.Ack{ack}, err
			})
		},
	}
	opts.register(cmd)
	return cmd
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}
	var title, content string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Schedule a new entry",
		Example: `  diary add --title "Monday" --content "Rain again."
  DIARY_SECRET=... diary add --title "Tuesday" --content "Sun." --apply`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, opts, func(ctx context.Context, a *app, caller string) ([]frontend.Ack, error) {
				ack, err := a.mutations.AddEntry(ctx, caller, opts.secret(), title, content)
				return []frontend.Ack{ack}, err
			})
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "entry title")
	cmd.Flags().StringVar(&content, "content", "", "entry content")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}
	var title, content string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Schedule an entry update",
		Long: `Schedule an update of an existing entry.

Only the fields given as flags change. At least one of --title and
--content is required.`,
		Example: `  diary update 3 --title "Monday (revised)"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			var titlePtr, contentPtr *string
			if cmd.Flags().Changed("title") {
				titlePtr = &title
			}
			if cmd.Flags().Changed("content") {
				contentPtr = &content
			}
			return runWrite(cmd, opts, func(ctx context.Context, a *app, caller string) ([]frontend.Ack, error) {
				ack, err := a.mutations.UpdateEntry(ctx, caller, opts.secret(), id, titlePtr, contentPtr)
				return []frontend.Ack{ack}, err
			})
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Schedule an entry deletion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			return runWrite(cmd, opts, func(ctx context.Context, a *app, caller string) ([]frontend.Ack, error) {
				ack, err := a.mutations.DeleteEntry(ctx, caller, opts.secret(), id)
				return []frontend.Ack{ack}, err
			})
		},
	}
	opts.register(cmd)
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Schedule a batch of entries from a YAML or JSON file",
		Long: `Schedule one new entry per item of a YAML or JSON list.

Each item has a title and a content. Items with an empty field are
acknowledged as failed without stopping the batch.`,
		Example: `  diary import entries.yaml --apply`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			return runWrite(cmd, opts, func(ctx context.Context, a *app, caller string) ([]frontend.Ack, error) {
				return a.mutations.AddEntries(ctx, caller, opts.secret(), entries)
			})
		},
	}
	opts.register(cmd)
	return cmd
}

// readBatchFile parses a list of entries. YAML is a superset of JSON so
// one decoder reads both.
func readBatchFile(path string) ([]frontend.BatchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read batch file", err)
	}
	var entries []frontend.BatchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to parse batch file", err)
	}
	return entries, nil
}

type scheduleFunc func(ctx context.Context, a *app, caller string) ([]frontend.Ack, error)

// runWrite schedules through the front end and, with --apply, drains the
// engine and reports the final record of every scheduled command.
func runWrite(cmd *cobra.Command, opts *WriteOptions, schedule scheduleFunc) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(cfg, opts.oneShotLogger(cmd.ErrOrStderr(), cfg), false)
	if err != nil {
		return err
	}
	defer a.Close()

	caller := opts.Caller
	if caller == "" {
		caller = cfg.Identity
	}

	acks, err := schedule(ctx, a, caller)
	if err != nil {
		return out.DiaryError(err)
	}
	result := WriteResult{Acks: acks}

	rejected := 0
	if opts.Apply {
		n, err := a.engine.Drain(ctx)
		if err != nil {
			return fmt.Errorf("apply: %w", err)
		}
		out.VerboseLog("applied %d pending command(s)", n)

		for _, ack := range acks {
			if ack.CommandID == "" {
				continue
			}
			rec, err := a.store.ReadCommand(ctx, ack.CommandID)
			if err != nil {
				return err
			}
			if rec.Status == ir.StatusRejected {
				rejected++
			}
			result.Commands = append(result.Commands, rec)
		}
	}

	if err := out.Success(result, func(w io.Writer) { writeResultText(w, result) }); err != nil {
		return err
	}
	if rejected > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d command(s) rejected", rejected))
	}
	return nil
}

func writeResultText(w io.Writer, result WriteResult) {
	for _, ack := range result.Acks {
		if !ack.Success {
			fmt.Fprintf(w, "✗ %s\n", ack.Message)
			continue
		}
		fmt.Fprintf(w, "✓ %s\n", ack.Message)
		fmt.Fprintf(w, "  command %s\n", ack.CommandID)
	}
	for _, rec := range result.Commands {
		when := humanize.Time(microsToTime(rec.DeliveredAt))
		switch rec.Status {
		case ir.StatusApplied:
			fmt.Fprintf(w, "Applied %s %s (%s)\n", rec.Command.Kind, rec.ID, when)
		case ir.StatusRejected:
			fmt.Fprintf(w, "Rejected %s %s: [%s] %s\n", rec.Command.Kind, rec.ID, rec.ErrorCode, rec.ErrorMessage)
		default:
			fmt.Fprintf(w, "Pending %s %s\n", rec.Command.Kind, rec.ID)
		}
	}
}

func parseEntryID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid entry id %q: must be a non-negative integer", s))
	}
	return id, nil
}

func microsToTime(us uint64) time.Time {
	return time.UnixMicro(int64(us))
}
