package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/billfold/internal/model"
)

// defaultDraftKey names the draft used when no key argument is given.
const defaultDraftKey = "default"

// NewDraftCommand creates the draft command group. Drafts are
// keyed scratch forms that never leave the local database.
func NewDraftCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Save and restore in-progress invoice forms",
	}
	cmd.AddCommand(newDraftSaveCommand(rootOpts))
	cmd.AddCommand(newDraftShowCommand(rootOpts))
	cmd.AddCommand(newDraftClearCommand(rootOpts))
	return cmd
}

func draftKey(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultDraftKey
}

func newDraftSaveCommand(rootOpts *RootOptions) *cobra.Command {
	ff := &formFlags{}

	cmd := &cobra.Command{
		Use:   "save [key]",
		Short: "Save an in-progress invoice form",
		Long: `Save a partial invoice form under a key (default "default") so it can
be picked up later. Saving again under the same key overwrites the
previous draft.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := ff.build(model.InvoiceForm{}, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid draft form", err)
			}

			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			key := draftKey(args)
			if err := app.local.SaveDraft(cmd.Context(), key, form); err != nil {
				return WrapExitError(ExitFailure, "failed to save draft", err)
			}
			return newFormatter(rootOpts, cmd).Notify(
				fmt.Sprintf("Saved draft %q", key),
				map[string]string{"key": key})
		},
	}

	ff.register(cmd)
	return cmd
}

func newDraftShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show [key]",
		Short:         "Show a saved draft",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			key := draftKey(args)
			form, ok, err := app.local.LoadDraft(cmd.Context(), key)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load draft", err)
			}
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("no draft saved under %q", key))
			}

			f := newFormatter(rootOpts, cmd)
			if f.Format == "json" {
				return f.Success(form)
			}
			data, err := json.MarshalIndent(form, "", "  ")
			if err != nil {
				return WrapExitError(ExitFailure, "failed to render draft", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newDraftClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear [key]",
		Short:         "Discard a saved draft",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			key := draftKey(args)
			if err := app.local.ClearDraft(cmd.Context(), key); err != nil {
				return WrapExitError(ExitFailure, "failed to clear draft", err)
			}
			return newFormatter(rootOpts, cmd).Notify(
				fmt.Sprintf("Cleared draft %q", key),
				map[string]string{"key": key})
		},
	}
}
