package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/billfold/internal/config"
	"github.com/roach88/billfold/internal/facade"
	"github.com/roach88/billfold/internal/localstore"
	"github.com/roach88/billfold/internal/remote"
	"github.com/roach88/billfold/internal/syncstatus"
)

// app bundles the wired components commands operate on: loaded config,
// the local store, the sync-status tracker, and the routing facade.
type app struct {
	cfg     *config.Config
	local   *localstore.Store
	status  *syncstatus.Tracker
	backend facade.Backend // nil without credentials
	data    *facade.Facade
}

// newApp loads configuration, opens the local database, and wires the
// facade. The returned cleanup closes the database and must be called
// even when a later step fails.
func newApp(opts *RootOptions) (*app, func(), error) {
	configureLogging(opts.Verbose)

	cfgPath := opts.ConfigPath
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultPath()
		if err != nil {
			return nil, func() {}, WrapExitError(ExitCommandError, "failed to locate config", err)
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, func() {}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, func() {}, WrapExitError(ExitCommandError, "failed to resolve database path", err)
	}
	local, err := localstore.Open(dbPath)
	if err != nil {
		return nil, func() {}, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	cleanup := func() {
		if closeErr := local.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}

	status := syncstatus.New(time.Now)

	var backend facade.Backend
	if cfg.Authenticated() {
		backend = remote.NewClient(remote.ClientConfig{
			BaseURL: cfg.APIURL,
			Token:   cfg.APIToken,
		})
	}

	return &app{
		cfg:     cfg,
		local:   local,
		status:  status,
		backend: backend,
		data:    facade.New(local, backend, cfg, status),
	}, cleanup, nil
}

// configureLogging sets the process-wide slog default based on the
// verbose flag.
func configureLogging(verbose bool) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// newFormatter builds the output formatter for a command invocation.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
