package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DBPath     string // overrides the configured database location
	ConfigPath string // overrides the default config file location
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the billfold CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "billfold",
		Short: "Billfold - offline-first invoicing",
		Long: `An invoicing tool that keeps your data in a local SQLite database
and optionally syncs with a cloud backend once credentials are configured.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (default: per-user data file)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (default: per-user config)")

	// Add subcommands
	cmd.AddCommand(NewInvoiceCommand(opts))
	cmd.AddCommand(NewDraftCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewHandoffCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
