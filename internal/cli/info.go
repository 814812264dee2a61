package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/decsync/internal/engine"
	"github.com/roach88/decsync/internal/value"
)

// InfoRow is one static info key, e.g. a collection's name.
type InfoRow struct {
	Key      value.Value `json:"key"`
	Datetime string      `json:"datetime"`
	Value    value.Value `json:"value"`
}

// CountResult is the JSON payload of the count command.
type CountResult struct {
	Prefix []string `json:"prefix"`
	Count  int      `json:"count"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the collection's static info",
		Long: `Show the info entries (path ["info"]) of the collection, merged across all
apps, latest value per key. This does not open the collection as an app, so it
is safe on collections this app has never synced.

Examples:
  decsync --sync-type contacts --collection family info`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(rootOpts, cmd)
		},
	}

	return cmd
}

func runInfo(opts *RootOptions, cmd *cobra.Command) error {
	s, err := loadSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := engine.StaticInfo(s.root, s.cfg.SyncType, s.cfg.Collection, s.engineOptions()...)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to read static info", err)
	}

	rows := make([]InfoRow, 0, len(info))
	for _, e := range info {
		rows = append(rows, InfoRow{Key: e.Key, Datetime: e.Datetime, Value: e.Value})
	}

	if s.out.IsJSON() {
		return s.out.Success(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(s.out.Writer, "No info.")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(s.out.Writer, "%s = %s\n", value.Key(r.Key), value.Key(r.Value))
	}
	return nil
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [path]",
		Short: "Count live entries below a path",
		Long: `Count the (path, key) pairs below a path prefix whose latest value across
all apps is not null.

Examples:
  decsync --sync-type tasks count /tasks`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runCount(opts *RootOptions, args []string, cmd *cobra.Command) error {
	s, err := loadSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	prefix, err := optionalPath(args)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeArguments, "invalid path", err)
	}

	count, err := engine.EntriesCount(s.root, s.cfg.SyncType, s.cfg.Collection, prefix, s.engineOptions()...)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to count entries", err)
	}

	if s.out.IsJSON() {
		return s.out.Success(CountResult{Prefix: prefix, Count: count})
	}
	fmt.Fprintf(s.out.Writer, "%d\n", count)
	return nil
}
