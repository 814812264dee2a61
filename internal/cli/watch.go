package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/decsync/internal/watch"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync whenever another app's files change",
		Long: `Sync once, then keep watching the collection directory and sync again after
every burst of changes from other apps. Changes in this app's own directory
are ignored. Stops on Ctrl-C.

The quiet period before each sync is watch.debounce in the config file.

Examples:
  decsync --sync-type tasks --mirror ./tasks.db watch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, cmd)
		},
	}

	return cmd
}

func runWatch(opts *RootOptions, cmd *cobra.Command) error {
	s, err := loadSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.openEngine(true); err != nil {
		return err
	}

	replay := func(ctx context.Context) error {
		report, err := s.decsync.ExecuteAllNewEntries(ctx)
		if err != nil {
			return err
		}
		result := newSyncResult(report)
		if result.Complete {
			s.logger.Info("sync complete",
				"apps", result.Apps,
				"buckets_read", result.BucketsRead,
				"entries_applied", result.EntriesApplied)
		} else {
			s.logger.Warn("sync incomplete",
				"failures", len(result.Failures),
				"rejected", result.BucketsRejected)
		}
		return nil
	}

	w, err := watch.New(s.decsync.Dir().Path(), replay, watch.Config{
		Debounce:    s.cfg.Watch.Debounce,
		IgnoreAppID: s.cfg.AppID,
		Logger:      s.logger,
	})
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to start watcher", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.logger.Info("watching", "dir", s.decsync.Dir().Path())
	if !s.out.IsJSON() {
		fmt.Fprintln(s.out.Writer, "Watching for changes. Press Ctrl-C to stop.")
	}

	if err := w.Run(ctx); err != nil {
		return s.out.Fail(ExitFailure, ErrCodeDirectory, "watcher error", err)
	}

	s.logger.Info("watcher stopped")
	if s.out.IsJSON() {
		return s.out.Success(map[string]bool{"stopped": true})
	}
	return nil
}
