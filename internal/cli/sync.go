package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/billfold/internal/conflict"
	"github.com/roach88/billfold/internal/localstore"
	"github.com/roach88/billfold/internal/watch"
)

// NewSyncCommand creates the sync command group.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Inspect and watch sync state",
	}
	cmd.AddCommand(newSyncStatusCommand(rootOpts))
	cmd.AddCommand(newSyncWatchCommand(rootOpts))
	return cmd
}

// syncStatusReport is the JSON shape of the status command.
type syncStatusReport struct {
	Mode     string `json:"mode"` // "cloud" or "local"
	State    string `json:"state"`
	Online   bool   `json:"online"`
	LastSync string `json:"last_sync,omitempty"`
	Database string `json:"database"`
}

func newSyncStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current sync mode and backend reachability",
		Long: `Report whether the tool is running in local or cloud mode. In cloud
mode the backend is probed with a list call so the report reflects
actual reachability, not just configuration.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()

			mode := "local"
			if app.cfg.Authenticated() && !app.cfg.DryRun() {
				mode = "cloud"
				if err := app.data.Refresh(cmd.Context()); err != nil {
					slog.Warn("backend unreachable", "error", err)
					app.status.MarkOffline()
					app.status.SetOnline(false)
				}
			}

			snap := app.status.Snapshot()
			report := syncStatusReport{
				Mode:     mode,
				State:    snap.State.String(),
				Online:   snap.Online,
				Database: app.local.Path(),
			}
			if !snap.LastSync.IsZero() {
				report.LastSync = snap.LastSync.Format(time.RFC3339)
			}

			f := newFormatter(rootOpts, cmd)
			if f.Format == "json" {
				return f.Success(report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mode:     %s\n", report.Mode)
			fmt.Fprintf(out, "State:    %s\n", report.State)
			fmt.Fprintf(out, "Online:   %t\n", report.Online)
			if report.LastSync != "" {
				fmt.Fprintf(out, "Last sync: %s\n", report.LastSync)
			}
			fmt.Fprintf(out, "Database: %s\n", report.Database)
			return nil
		},
	}
}

func newSyncWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the database for writes from other processes",
		Long: `Poll the database for changes made by other billfold processes and
print each one. When a foreign write collides with local data, the
conflict is described and a resolution is read from stdin
(local, cloud, merge, or skip). Runs until interrupted.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer cleanup()
			return watchDatabase(cmd, app, interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", watch.DefaultInterval, "poll interval")
	return cmd
}

func watchDatabase(cmd *cobra.Command, app *app, interval time.Duration) error {
	out := cmd.OutOrStdout()

	reader, err := localstore.OpenReader(app.local.Path())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database reader", err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			slog.Error("error closing reader", "error", closeErr)
		}
	}()

	bus := watch.New(reader,
		watch.WithInterval(interval),
		watch.WithLocalOrigin(app.local),
	)

	// The prompt closure needs the detector it belongs to; capture
	// the variable before construction fills it in.
	var det *conflict.Detector
	det = conflict.New(app.local, app.data, app.status,
		conflict.WithPrompt(func(p conflict.Pending) {
			resolvePending(cmd, det, p)
		}),
	)
	detachDetector := det.Attach(bus)
	defer detachDetector()

	unsubscribe := bus.Subscribe(func(ev watch.Event) {
		if ev.InvoiceID == "" {
			fmt.Fprintf(out, "[%s] %s: invoice removed\n", ev.At.Format(time.TimeOnly), ev.Origin)
			return
		}
		fmt.Fprintf(out, "[%s] %s: invoice %s changed\n", ev.At.Format(time.TimeOnly), ev.Origin, ev.InvoiceID)
	})
	defer unsubscribe()

	// Signal handling mirrors a long-running server loop: Ctrl-C
	// cancels the poll context and the command returns cleanly.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping watch", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(out, "Watching %s for changes. Press Ctrl-C to stop.\n", app.local.Path())
	if err := bus.Run(ctx); err != nil && err != context.Canceled {
		return WrapExitError(ExitFailure, "watch error", err)
	}
	return nil
}

// resolvePending describes the conflict and reads a resolution choice
// from stdin. Runs inline on the poll goroutine, pausing further
// events until answered.
func resolvePending(cmd *cobra.Command, d *conflict.Detector, p conflict.Pending) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Conflict detected:")
	// A pending conflict always carries the local record; only the
	// cloud counterpart is optional.
	fmt.Fprintf(out, "  local: %s %s\n", p.Local.Number, p.Local.ID)
	if p.Cloud != nil {
		fmt.Fprintf(out, "  cloud: %s %s\n", p.Cloud.Number, p.Cloud.ID)
	}
	fmt.Fprint(out, "Keep which copy? [local/cloud/merge/skip]: ")

	choice, ok := readResolution(cmd.InOrStdin())
	if !ok {
		d.Cancel()
		fmt.Fprintln(out, "Left unresolved.")
		return
	}
	if err := d.Resolve(cmd.Context(), choice); err != nil {
		fmt.Fprintf(out, "Resolution failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Resolved: kept %s.\n", choice)
}

func readResolution(in io.Reader) (conflict.Resolution, bool) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "local":
			return conflict.KeepLocal, true
		case "cloud":
			return conflict.KeepCloud, true
		case "merge":
			return conflict.Merge, true
		case "skip", "":
			return 0, false
		}
	}
	return 0, false
}
