package mirror

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/value"
)

func TestCompilePredicate(t *testing.T) {
	tests := []struct {
		name       string
		pred       Predicate
		wantSQL    string
		wantParams []any
	}{
		{"nil", nil, "1 = 1", nil},
		{"prefix", PathPrefix{Prefix: entry.Path{"a"}}, "substr(path_key, 1, length(?)) = ?", []any{"a\x1f", "a\x1f"}},
		{"key", KeyEquals{Key: value.String("title")}, "key = ?", []any{`"title"`}},
		{"value", ValueEquals{Value: value.MustParse(`{"b":1,"a":2}`)}, "value = ?", []any{`{"a":2,"b":1}`}},
		{"not null", NotNull{}, "value != 'null'", nil},
		{"since", ChangedSince{Datetime: "2024-01-01T00:00:00"}, "datetime >= ?", []any{"2024-01-01T00:00:00"}},
		{"empty and", And{}, "1 = 1", nil},
		{
			"and",
			And{Predicates: []Predicate{NotNull{}, KeyEquals{Key: value.Int(1)}}},
			"value != 'null' AND key = ?",
			[]any{"1"},
		},
		{
			"nested and",
			&And{Predicates: []Predicate{And{Predicates: []Predicate{NotNull{}}}, ChangedSince{Datetime: "x"}}},
			"(value != 'null') AND datetime >= ?",
			[]any{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compilePredicate(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompileSelect_AlwaysOrdered(t *testing.T) {
	sql, _, err := compileSelect(NotNull{})
	require.NoError(t, err)
	assert.Contains(t, sql, "ORDER BY path_key ASC COLLATE BINARY, key ASC COLLATE BINARY")
}

func TestCompileSelect_NeverInterpolates(t *testing.T) {
	injection := value.String("x' OR '1'='1")
	sql, params, err := compileSelect(ValueEquals{Value: injection})
	require.NoError(t, err)
	assert.NotContains(t, sql, "OR '1'='1")
	assert.Equal(t, []any{`"x' OR '1'='1"`}, params)
}

func TestSelect_Filters(t *testing.T) {
	m := createTestMirror(t)
	ctx := context.Background()

	require.NoError(t, m.Apply(ctx, entry.Path{"tasks", "1"}, []entry.Entry{
		e("title", "2024-01-01T00:00:00", value.String("milk")),
		e("done", "2024-01-01T00:00:05", value.Bool(true)),
	}))
	require.NoError(t, m.Apply(ctx, entry.Path{"tasks", "2"}, []entry.Entry{
		e("title", "2024-01-01T00:00:03", value.Null{}),
	}))

	all, err := m.Select(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	titles, err := m.Select(ctx, KeyEquals{Key: value.String("title")})
	require.NoError(t, err)
	require.Len(t, titles, 2)
	assert.Equal(t, entry.Path{"tasks", "1"}, titles[0].Path)
	assert.Equal(t, value.Null{}, titles[1].Value)

	recent, err := m.Select(ctx, And{Predicates: []Predicate{
		ChangedSince{Datetime: "2024-01-01T00:00:03"},
		NotNull{},
	}})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, value.String("done"), recent[0].Key)

	done, err := m.Select(ctx, ValueEquals{Value: value.Bool(true)})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, entry.Path{"tasks", "1"}, done[0].Path)
}
