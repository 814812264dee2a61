package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/decsync/internal/engine"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Rebuild bool
}

// SyncResult is the outcome of one replay pass.
type SyncResult struct {
	Apps            int      `json:"apps"`
	BucketsRead     int      `json:"buckets_read"`
	BucketsSkipped  int      `json:"buckets_skipped"`
	BucketsRejected int      `json:"buckets_rejected"`
	EntriesApplied  int      `json:"entries_applied"`
	Failures        []string `json:"failures,omitempty"`
	Complete        bool     `json:"complete"`
}

func newSyncResult(report engine.ReplayReport) SyncResult {
	result := SyncResult{
		Apps:            report.Apps,
		BucketsRead:     report.BucketsRead,
		BucketsSkipped:  report.BucketsSkipped,
		BucketsRejected: report.BucketsRejected,
		EntriesApplied:  report.EntriesApplied,
		Complete:        report.AllAccepted && len(report.Failures) == 0,
	}
	for _, f := range report.Failures {
		result.Failures = append(result.Failures, f.Error())
	}
	return result
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Merge new entries from other apps",
		Long: `Read every other app's buckets whose sequence changed since the last
sync, merge newer entries into this app's buckets and, with --mirror, apply
them to the SQLite mirror.

With --rebuild the mirror is first reloaded from this app's stored entries,
e.g. after deleting the mirror database.

Exit codes:
  0 - All new entries were merged
  1 - Some buckets failed or were rejected; they are retried next time
  2 - Command error (bad config, unreadable directory, etc.)

Examples:
  decsync --sync-type tasks sync
  decsync --sync-type tasks --mirror ./tasks.db sync --rebuild`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Rebuild, "rebuild", false, "reload the mirror from stored entries before syncing")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	s, err := loadSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.Rebuild && s.cfg.Mirror == "" {
		return s.out.Fail(ExitCommandError, ErrCodeMirror, "--rebuild needs a mirror database (use --mirror)", nil)
	}
	if err := s.openEngine(true); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if opts.Rebuild {
		s.out.VerboseLog("Reloading mirror from stored entries")
		ok, err := s.decsync.InitStoredEntries(ctx)
		if err != nil {
			return s.out.Fail(ExitCommandError, ErrCodeMirror, "failed to reload mirror", err)
		}
		if !ok {
			return s.out.Fail(ExitFailure, ErrCodeMirror, "mirror rejected stored entries", nil)
		}
	}

	report, err := s.decsync.ExecuteAllNewEntries(ctx)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "sync failed", err)
	}
	result := newSyncResult(report)
	for _, f := range result.Failures {
		s.out.VerboseLog("failed: %s", f)
	}

	if !result.Complete {
		return outputSyncIncomplete(s.out, result)
	}
	if s.out.IsJSON() {
		return s.out.Success(result)
	}
	fmt.Fprintln(s.out.Writer, formatSyncSummary(result))
	return nil
}

func formatSyncSummary(r SyncResult) string {
	return fmt.Sprintf("Synced %d app(s): %d bucket(s) read, %d unchanged, %d entr(ies) applied",
		r.Apps, r.BucketsRead, r.BucketsSkipped, r.EntriesApplied)
}

// outputSyncIncomplete reports a pass that left work for the next one.
func outputSyncIncomplete(out *OutputFormatter, result SyncResult) error {
	message := fmt.Sprintf("sync incomplete: %d bucket(s) failed, %d rejected",
		len(result.Failures), result.BucketsRejected)

	if out.IsJSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeSyncPartial,
				Message: message,
			},
		}
		if err := json.NewEncoder(out.Writer).Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}

	fmt.Fprintln(out.Writer, formatSyncSummary(result))
	fmt.Fprintf(out.Writer, "✗ %s\n", message)
	for _, f := range result.Failures {
		fmt.Fprintf(out.Writer, "  %s\n", f)
	}
	return NewExitError(ExitFailure, message)
}
