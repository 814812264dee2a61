package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the decsync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "decsync",
		Short: "decsync - synchronize data through a shared directory",
		Long: `Synchronize key-value data between apps through a directory shared by a
file-sync tool such as Syncthing or Nextcloud.

Every app writes only to its own subdirectory; other apps merge those writes
with last-writer-wins semantics. No server is involved.

Settings come from --config, DECSYNC_* environment variables and flags, in
increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "config file (yaml, toml or json)")

	// Settings; unset flags fall through to the config file and environment.
	flags.String("dir", "", "shared decsync directory (default ~/DecSync)")
	flags.String("local-dir", "", "directory for unsynced local state")
	flags.String("app-id", "", "id of this app instance (default: generated on first run and kept in the local dir)")
	flags.String("sync-type", "", "sync type, e.g. rss or contacts")
	flags.String("collection", "", "collection within the sync type")
	flags.String("mirror", "", "SQLite database mirroring the synced state")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-file", "", "write logs to this rotated file instead of stderr")

	// Add subcommands
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewInfoCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewAppsCommand(opts))
	cmd.AddCommand(NewLatestCommand(opts))
	cmd.AddCommand(NewDeleteAppCommand(opts))
	cmd.AddCommand(NewDeleteOwnCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

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
