package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/value"
)

// Row is one current value in the mirror.
type Row struct {
	Path     entry.Path
	Key      value.Value
	Datetime string
	Value    value.Value
}

// Query returns the rows below prefix whose value is not null, ordered by
// path and key.
func (m *Mirror) Query(ctx context.Context, prefix entry.Path) ([]Row, error) {
	return m.Select(ctx, And{Predicates: []Predicate{PathPrefix{Prefix: prefix}, NotNull{}}})
}

// Select returns the rows matching filter, ordered by path and key. A nil
// filter returns every row, nulls included.
func (m *Mirror) Select(ctx context.Context, filter Predicate) ([]Row, error) {
	query, params, err := compileSelect(filter)
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var pathJSON, keyJSON, datetime, valueJSON string
		if err := rows.Scan(&pathJSON, &keyJSON, &datetime, &valueJSON); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		row, err := decodeRow(pathJSON, keyJSON, datetime, valueJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// Get returns the current row for (path, key). ok is false if there is none.
// Null values are returned; callers decide whether null means deleted.
func (m *Mirror) Get(ctx context.Context, path entry.Path, key value.Value) (Row, bool, error) {
	keyJSON, err := value.MarshalCanonical(key)
	if err != nil {
		return Row{}, false, fmt.Errorf("encode key: %w", err)
	}

	var pathJSON, datetime, valueJSON string
	err = m.db.QueryRowContext(ctx, `
		SELECT path, datetime, value FROM entries WHERE path_key = ? AND key = ?
	`, encodePathKey(path), string(keyJSON)).Scan(&pathJSON, &datetime, &valueJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Row{}, false, nil
		}
		return Row{}, false, fmt.Errorf("get entry: %w", err)
	}

	row, err := decodeRow(pathJSON, string(keyJSON), datetime, valueJSON)
	if err != nil {
		return Row{}, false, err
	}
	return row, true, nil
}

// Count returns the number of rows whose value is not null.
func (m *Mirror) Count(ctx context.Context) (int, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE value != 'null'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

func decodeRow(pathJSON, keyJSON, datetime, valueJSON string) (Row, error) {
	pathVal, err := value.Parse([]byte(pathJSON))
	if err != nil {
		return Row{}, fmt.Errorf("decode path: %w", err)
	}
	arr, ok := pathVal.(value.Array)
	if !ok {
		return Row{}, fmt.Errorf("decode path: not an array")
	}
	path := make(entry.Path, 0, len(arr))
	for _, seg := range arr {
		s, ok := seg.(value.String)
		if !ok {
			return Row{}, fmt.Errorf("decode path: segment is not a string")
		}
		path = append(path, string(s))
	}

	key, err := value.Parse([]byte(keyJSON))
	if err != nil {
		return Row{}, fmt.Errorf("decode key: %w", err)
	}
	val, err := value.Parse([]byte(valueJSON))
	if err != nil {
		return Row{}, fmt.Errorf("decode value: %w", err)
	}
	return Row{Path: path, Key: key, Datetime: datetime, Value: val}, nil
}
