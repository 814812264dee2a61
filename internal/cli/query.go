package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/decsync/internal/mirror"
	"github.com/roach88/decsync/internal/platform"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Key         string // JSON key to match
	Value       string // JSON value to match
	Since       string // only rows written at or after this datetime
	IncludeNull bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [path]",
		Short: "Query the SQLite mirror",
		Long: `List the current values in the mirror database below a path prefix.
The mirror is filled by sync and watch. Deleted (null) values are hidden
unless --include-null is given.

Examples:
  decsync --sync-type tasks --mirror ./tasks.db query /tasks
  decsync --sync-type tasks --mirror ./tasks.db query --key '"done"' --value true
  decsync --sync-type tasks --mirror ./tasks.db query --since 2024-01-01T00:00:00`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Key, "key", "", "only rows with this key (JSON)")
	cmd.Flags().StringVar(&opts.Value, "value", "", "only rows with this value (JSON)")
	cmd.Flags().StringVar(&opts.Since, "since", "", "only rows written at or after this datetime")
	cmd.Flags().BoolVar(&opts.IncludeNull, "include-null", false, "include deleted (null) values")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	s, err := loadSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	filter, err := buildQueryFilter(opts, args)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeArguments, "invalid query", err)
	}
	if err := s.openMirror(); err != nil {
		return err
	}

	found, err := s.mirror.Select(commandContext(cmd), filter)
	if err != nil {
		return s.out.Fail(ExitCommandError, ErrCodeMirror, "mirror query failed", err)
	}

	rows := make([]EntryRow, 0, len(found))
	for _, r := range found {
		rows = append(rows, EntryRow{Path: r.Path, Key: r.Key, Datetime: r.Datetime, Value: r.Value})
	}
	return writeRows(s.out, rows)
}

func buildQueryFilter(opts *QueryOptions, args []string) (mirror.Predicate, error) {
	prefix, err := optionalPath(args)
	if err != nil {
		return nil, err
	}
	preds := []mirror.Predicate{mirror.PathPrefix{Prefix: prefix}}

	if opts.Key != "" {
		key, err := parseJSONArg(opts.Key, false)
		if err != nil {
			return nil, err
		}
		preds = append(preds, mirror.KeyEquals{Key: key})
	}
	if opts.Value != "" {
		val, err := parseJSONArg(opts.Value, false)
		if err != nil {
			return nil, err
		}
		preds = append(preds, mirror.ValueEquals{Value: val})
	}
	if opts.Since != "" {
		if _, err := platform.ParseDatetime(opts.Since); err != nil {
			return nil, err
		}
		preds = append(preds, mirror.ChangedSince{Datetime: opts.Since})
	}
	if !opts.IncludeNull {
		preds = append(preds, mirror.NotNull{})
	}
	return mirror.And{Predicates: preds}, nil
}
