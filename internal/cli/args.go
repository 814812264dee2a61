package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/value"
)

// parsePath accepts either a JSON array of strings, for segments that
// contain slashes, or a slash-separated path. "" and "/" are the empty path.
func parsePath(arg string) (entry.Path, error) {
	if strings.HasPrefix(arg, "[") {
		v, err := value.Parse([]byte(arg))
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", arg, err)
		}
		arr, ok := v.(value.Array)
		if !ok {
			return nil, fmt.Errorf("invalid path %q: not an array", arg)
		}
		path := make(entry.Path, 0, len(arr))
		for _, elem := range arr {
			s, ok := elem.(value.String)
			if !ok {
				return nil, fmt.Errorf("invalid path %q: segments must be strings", arg)
			}
			path = append(path, string(s))
		}
		return path, nil
	}

	trimmed := strings.Trim(arg, "/")
	if trimmed == "" {
		return entry.Path{}, nil
	}
	return entry.Path(strings.Split(trimmed, "/")), nil
}

// parseJSONArg parses a command-line JSON value. With asString the argument
// is taken literally as a JSON string.
func parseJSONArg(arg string, asString bool) (value.Value, error) {
	if asString {
		return value.String(arg), nil
	}
	v, err := value.Parse([]byte(arg))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON %q (use --string for plain text): %w", arg, err)
	}
	return v, nil
}

// optionalPath parses the first argument as a path prefix, or returns the
// empty path.
func optionalPath(args []string) (entry.Path, error) {
	if len(args) == 0 {
		return entry.Path{}, nil
	}
	return parsePath(args[0])
}

// EntryRow is one (path, key) value in command output.
type EntryRow struct {
	Path     []string    `json:"path"`
	Key      value.Value `json:"key"`
	Datetime string      `json:"datetime"`
	Value    value.Value `json:"value"`
}

func (r EntryRow) String() string {
	return fmt.Sprintf("%s %s = %s (%s)",
		entry.Path(r.Path).String(), value.Key(r.Key), value.Key(r.Value), r.Datetime)
}

// sortRows orders rows by path, then by canonical key.
func sortRows(rows []EntryRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := entry.Path(rows[i].Path).String(), entry.Path(rows[j].Path).String()
		if pi != pj {
			return pi < pj
		}
		return value.Key(rows[i].Key) < value.Key(rows[j].Key)
	})
}

// writeRows prints rows as text lines, or as the JSON envelope.
func writeRows(out *OutputFormatter, rows []EntryRow) error {
	if rows == nil {
		rows = []EntryRow{}
	}
	if out.IsJSON() {
		return out.Success(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out.Writer, "No entries.")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintln(out.Writer, r.String())
	}
	return nil
}
