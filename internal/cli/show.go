package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/listener"
	"github.com/roach88/decsync/internal/value"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Keys        []string
	Exact       bool
	IncludeNull bool
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [path]",
		Short: "Show this app's stored entries",
		Long: `Show the entries stored in this app's buckets below a path prefix,
including entries merged from other apps by earlier syncs.

Null values are deleted keys and are hidden unless --include-null is set.

Examples:
  decsync --sync-type tasks show
  decsync --sync-type tasks show /tasks/1 --exact --key '"title"'`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Keys, "key", nil, "only show this JSON key (repeatable)")
	cmd.Flags().BoolVar(&opts.Exact, "exact", false, "match the path exactly instead of as a prefix")
	cmd.Flags().BoolVar(&opts.IncludeNull, "include-null", false, "include deleted (null) values")

	return cmd
}

func runShow(opts *ShowOptions, args []string, cmd *cobra.Command) error {
	s, err := loadSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	path, err := optionalPath(args)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeArguments, "invalid path", err)
	}
	var keys []value.Value
	for _, k := range opts.Keys {
		key, err := parseJSONArg(k, false)
		if err != nil {
			return s.out.Fail(ExitCommandError, ErrCodeArguments, "invalid key", err)
		}
		keys = append(keys, key)
	}

	if err := s.openEngine(false); err != nil {
		return err
	}

	var rows []EntryRow
	s.decsync.AddListener(listener.Listener[context.Context]{
		OnEntriesUpdate: func(p entry.Path, entries []entry.Entry, _ context.Context) bool {
			for _, e := range entries {
				if !opts.IncludeNull && value.IsNull(e.Value) {
					continue
				}
				rows = append(rows, EntryRow{Path: p, Key: e.Key, Datetime: e.Datetime, Value: e.Value})
			}
			return true
		},
	})

	ctx := commandContext(cmd)
	if opts.Exact {
		_, err = s.decsync.ExecuteStoredEntriesForPathExact(path, ctx, keys)
	} else {
		_, err = s.decsync.ExecuteStoredEntriesForPathPrefix(path, ctx, keys)
	}
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeDirectory, "failed to read stored entries", err)
	}

	sortRows(rows)
	return writeRows(s.out, rows)
}
