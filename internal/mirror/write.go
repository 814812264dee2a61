package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/value"
)

const pathSeparator = "\x1f"

const upsertSQL = `
INSERT INTO entries (path_key, path, key, datetime, value)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (path_key, key) DO UPDATE SET
    path     = excluded.path,
    datetime = excluded.datetime,
    value    = excluded.value
WHERE excluded.datetime > entries.datetime
`

// Apply upserts entries for path in one transaction. An entry replaces the
// stored row only if its datetime is strictly newer.
func (m *Mirror) Apply(ctx context.Context, path entry.Path, entries []entry.Entry) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	pathKey := encodePathKey(path)
	pathJSON := value.Key(pathArray(path))
	for _, e := range entries {
		key, err := value.MarshalCanonical(e.Key)
		if err != nil {
			return fmt.Errorf("encode key: %w", err)
		}
		val, err := value.MarshalCanonical(e.Value)
		if err != nil {
			return fmt.Errorf("encode value: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, pathKey, pathJSON, string(key), e.Datetime, string(val)); err != nil {
			return fmt.Errorf("upsert %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// OnEntriesUpdate adapts Apply to the listener handler signature. A failed
// write rejects the group so replay offers it again.
func (m *Mirror) OnEntriesUpdate(path entry.Path, entries []entry.Entry, ctx context.Context) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := m.Apply(ctx, path, entries); err != nil {
		m.logger.Error("mirror write failed", "path", path.String(), "error", err)
		return false
	}
	return true
}

func pathArray(path entry.Path) value.Array {
	arr := make(value.Array, len(path))
	for i, s := range path {
		arr[i] = value.String(s)
	}
	return arr
}

// encodePathKey joins segments with a unit separator and terminates with one,
// so that a prefix of segments is a string prefix of the key.
func encodePathKey(path entry.Path) string {
	if len(path) == 0 {
		return ""
	}
	return strings.Join(path, pathSeparator) + pathSeparator
}
