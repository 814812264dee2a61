package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/platform"
	"github.com/roach88/decsync/internal/value"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	*RootOptions
	AsString bool
	Old      bool // backdate so any real edit wins
}

// SetResult is the JSON payload of the set command.
type SetResult struct {
	Path  []string    `json:"path"`
	Key   value.Value `json:"key"`
	Value value.Value `json:"value"`
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <path> <key> <value>",
		Short: "Write one entry as this app",
		Long: `Write one entry to this app's bucket files, timestamped now.

The path is slash-separated ("/tasks/1") or a JSON array of segments
('["tasks","a/b"]'). Key and value are JSON; with --string the value is taken
as plain text. A null value deletes the key. With --old the entry is dated
30 days back: use it for defaults that must not override real edits made on
other devices.

Examples:
  decsync --sync-type tasks set /tasks/1 '"title"' '"Buy milk"'
  decsync --sync-type tasks set /tasks/1 '"title"' --string "Buy milk"
  decsync --sync-type tasks set /tasks/1 '"title"' null
  decsync --sync-type tasks set --old /tasks/1 '"color"' '"blue"'`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.AsString, "string", false, "treat <value> as a plain string")
	cmd.Flags().BoolVar(&opts.Old, "old", false, "date the entry 30 days back")

	return cmd
}

func runSet(opts *SetOptions, args []string, cmd *cobra.Command) error {
	s, err := loadSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	path, err := parsePath(args[0])
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeArguments, "invalid path", err)
	}
	key, err := parseJSONArg(args[1], false)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeArguments, "invalid key", err)
	}
	val, err := parseJSONArg(args[2], opts.AsString)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeArguments, "invalid value", err)
	}

	if err := s.openEngine(false); err != nil {
		return err
	}
	if opts.Old {
		err = s.decsync.SetEntries([]entry.EntryWithPath{{
			Path:  path,
			Entry: entry.Entry{Key: key, Datetime: platform.OldDatetime(), Value: val},
		}})
	} else {
		err = s.decsync.SetEntry(path, key, val)
	}
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to write entry", err)
	}

	if s.out.IsJSON() {
		return s.out.Success(SetResult{Path: path, Key: key, Value: val})
	}
	fmt.Fprintf(s.out.Writer, "set %s %s = %s\n", path.String(), value.Key(key), value.Key(val))
	return nil
}
