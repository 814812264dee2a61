package mirror

import (
	"fmt"
	"strings"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/value"
)

// Predicate filters mirror rows.
//
// This is a sealed interface - only types in this package implement it.
// The marker method keeps the compiler's type switch exhaustive.
//
// Predicate types:
//   - PathPrefix: the row's path starts with a prefix
//   - KeyEquals: the row's key equals a value
//   - ValueEquals: the row's value equals a value
//   - NotNull: the row's value is not null (not deleted)
//   - ChangedSince: the row was written at or after a datetime
//   - And: all predicates must be true
type Predicate interface {
	predicateNode()
}

// PathPrefix matches rows whose path starts with Prefix. An empty prefix
// matches every row.
type PathPrefix struct {
	Prefix entry.Path
}

// KeyEquals matches rows whose key is Key. Keys compare by canonical JSON.
type KeyEquals struct {
	Key value.Value
}

// ValueEquals matches rows whose value is Value, by canonical JSON.
type ValueEquals struct {
	Value value.Value
}

// NotNull matches rows whose value is not null.
type NotNull struct{}

// ChangedSince matches rows whose datetime is Datetime or later.
type ChangedSince struct {
	Datetime string
}

// And matches rows that satisfy every predicate. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (PathPrefix) predicateNode()   {}
func (KeyEquals) predicateNode()    {}
func (ValueEquals) predicateNode()  {}
func (NotNull) predicateNode()      {}
func (ChangedSince) predicateNode() {}
func (And) predicateNode()          {}

// compileSelect builds the query for filter.
//
// Every query is ordered by path and key so results are deterministic, and
// every value is bound as a parameter, never interpolated.
func compileSelect(filter Predicate) (string, []any, error) {
	where, params, err := compilePredicate(filter)
	if err != nil {
		return "", nil, err
	}
	sql := "SELECT path, key, datetime, value FROM entries WHERE " + where +
		" ORDER BY path_key ASC COLLATE BINARY, key ASC COLLATE BINARY"
	return sql, params, nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case PathPrefix:
		pathKey := encodePathKey(pred.Prefix)
		return "substr(path_key, 1, length(?)) = ?", []any{pathKey, pathKey}, nil
	case KeyEquals:
		return compileEquals("key", pred.Key)
	case ValueEquals:
		return compileEquals("value", pred.Value)
	case NotNull:
		return "value != 'null'", nil, nil
	case ChangedSince:
		return "datetime >= ?", []any{pred.Datetime}, nil
	case And:
		return compileAnd(pred)
	case *And:
		return compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(column string, v value.Value) (string, []any, error) {
	encoded, err := value.MarshalCanonical(v)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", column, err)
	}
	return column + " = ?", []any{string(encoded)}, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, p, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if _, nested := pred.(And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, " AND "), params, nil
}
