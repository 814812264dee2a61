package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/decsync/internal/engine"
)

// AppsResult is the JSON payload of the apps command.
type AppsResult struct {
	Apps []string `json:"apps"`
	Own  string   `json:"own"`
}

// LatestResult is the JSON payload of the latest command.
type LatestResult struct {
	AppID string `json:"app_id"`
	Own   bool   `json:"own"`
}

// DeleteResult is the JSON payload of the delete commands.
type DeleteResult struct {
	AppID   string `json:"app_id"`
	Deleted bool   `json:"deleted"`
}

// NewAppsCommand creates the apps command.
func NewAppsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "apps",
		Short:         "List the apps that wrote to the collection",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApps(rootOpts, cmd)
		},
	}

	return cmd
}

func runApps(opts *RootOptions, cmd *cobra.Command) error {
	s, err := loadSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	apps, err := engine.ActiveApps(s.root, s.cfg.SyncType, s.cfg.Collection)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to list apps", err)
	}
	if apps == nil {
		apps = []string{}
	}

	if s.out.IsJSON() {
		return s.out.Success(AppsResult{Apps: apps, Own: s.cfg.AppID})
	}
	if len(apps) == 0 {
		fmt.Fprintln(s.out.Writer, "No apps.")
		return nil
	}
	for _, app := range apps {
		marker := " "
		if app == s.cfg.AppID {
			marker = "*"
		}
		fmt.Fprintf(s.out.Writer, "%s %s\n", marker, app)
	}
	return nil
}

// NewLatestCommand creates the latest command.
func NewLatestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the app with the most recent entry",
		Long: `Print the app id holding the most recent entry in the collection. Ties and
empty collections resolve to this app. A new installation can use this to
pick which app to copy initial state from.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLatest(rootOpts, cmd)
		},
	}

	return cmd
}

func runLatest(opts *RootOptions, cmd *cobra.Command) error {
	s, err := loadSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.openEngine(false); err != nil {
		return err
	}
	appID, err := s.decsync.LatestAppID()
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to scan buckets", err)
	}

	if s.out.IsJSON() {
		return s.out.Success(LatestResult{AppID: appID, Own: appID == s.cfg.AppID})
	}
	fmt.Fprintln(s.out.Writer, appID)
	return nil
}

// NewDeleteAppCommand creates the delete-app command.
func NewDeleteAppCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete-app <app-id>",
		Short: "Remove another app's directory from the collection",
		Long: `Remove an app's directory, e.g. for a device that was retired. Its entries
stay in the buckets of apps that already merged them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteApp(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDeleteApp(opts *RootOptions, appID string, cmd *cobra.Command) error {
	s, err := loadSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if appID == s.cfg.AppID {
		return s.out.Fail(ExitCommandError, ErrCodeArguments, "refusing to delete this app (use delete-own)", nil)
	}
	if err := engine.DeleteApp(s.root, s.cfg.SyncType, s.cfg.Collection, appID); err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to delete app", err)
	}
	return outputDeleted(s.out, appID)
}

// NewDeleteOwnCommand creates the delete-own command.
func NewDeleteOwnCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "delete-own",
		Short:         "Remove this app's directory from the collection",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteOwn(rootOpts, cmd)
		},
	}

	return cmd
}

func runDeleteOwn(opts *RootOptions, cmd *cobra.Command) error {
	s, err := loadSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.openEngine(false); err != nil {
		return err
	}
	if err := s.decsync.DeleteOwnEntries(); err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to delete own entries", err)
	}
	return outputDeleted(s.out, s.cfg.AppID)
}

func outputDeleted(out *OutputFormatter, appID string) error {
	if out.IsJSON() {
		return out.Success(DeleteResult{AppID: appID, Deleted: true})
	}
	fmt.Fprintf(out.Writer, "Deleted %s\n", appID)
	return nil
}
