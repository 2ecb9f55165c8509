package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/billfold/internal/handoff"
)

// NewHandoffCommand creates the handoff command group: the one-time
// migration of locally stored invoices into a cloud account.
func NewHandoffCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handoff",
		Short: "Move local invoices into your cloud account",
		Long: `After signing in for the first time, invoices created in local mode
still live only in the local database. Handoff uploads them all in one
batch and clears the local copies, or discards them if you prefer a
fresh start.`,
	}
	cmd.AddCommand(newHandoffRunCommand(rootOpts))
	cmd.AddCommand(newHandoffSkipCommand(rootOpts))
	return cmd
}

func newHandoffRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "run",
		Short:         "Upload all local invoices and clear the local database",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			if app.backend == nil {
				return NewExitError(ExitCommandError, "handoff requires cloud credentials; configure api_url and api_token first")
			}

			flow := handoff.New(app.local, app.backend, app.cfg,
				handoff.WithClock(time.Now))

			eligible, err := flow.Eligible(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to check local data", err)
			}
			if !eligible {
				return newFormatter(rootOpts, cmd).Notify(
					"Nothing to hand off: no local invoices.",
					map[string]int{"uploaded": 0})
			}

			count, err := flow.Run(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "handoff failed, local data is untouched", err)
			}
			return newFormatter(rootOpts, cmd).Notify(
				fmt.Sprintf("Uploaded %d invoice(s). Local copies cleared.", count),
				map[string]int{"uploaded": count})
		},
	}
}

func newHandoffSkipCommand(rootOpts *RootOptions) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "skip",
		Short: "Discard all local invoices and drafts without uploading",
		Long: `Discard everything in the local database instead of uploading it.
This cannot be undone, so the command refuses to run without --yes.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return NewExitError(ExitCommandError, "refusing to discard local data without --yes")
			}

			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			flow := handoff.New(app.local, app.backend, app.cfg,
				handoff.WithClock(time.Now))
			if err := flow.Skip(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "failed to clear local data", err)
			}
			return newFormatter(rootOpts, cmd).Notify(
				"Local invoices and drafts discarded.",
				map[string]bool{"cleared": true})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm discarding all local data")
	return cmd
}
