package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/value"
)

// createTestMirror opens a mirror in a fresh temp directory.
func createTestMirror(t *testing.T) *Mirror {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mirror.db")
	m, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func e(key string, datetime string, val value.Value) entry.Entry {
	return entry.Entry{Key: value.String(key), Datetime: datetime, Value: val}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")

	m, err := Open(path, nil)
	require.NoError(t, err)
	defer m.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")

	for i := 0; i < 3; i++ {
		m, err := Open(path, nil)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, m.Close())
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/mirror.db", nil)
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	m := &Mirror{}
	assert.NoError(t, m.Close())
}

func TestPragmas(t *testing.T) {
	m := createTestMirror(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"user_version", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, m.verifyPragma(ctx, tt.name, tt.expected))
		})
	}
}

func TestApply_LastWriteWins(t *testing.T) {
	m := createTestMirror(t)
	ctx := context.Background()
	path := entry.Path{"resources", "1"}

	require.NoError(t, m.Apply(ctx, path, []entry.Entry{e("title", "2024-01-01T00:00:02", value.String("new"))}))
	require.NoError(t, m.Apply(ctx, path, []entry.Entry{e("title", "2024-01-01T00:00:01", value.String("old"))}))

	row, ok, err := m.Get(ctx, path, value.String("title"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.String("new"), row.Value)
	assert.Equal(t, "2024-01-01T00:00:02", row.Datetime)

	require.NoError(t, m.Apply(ctx, path, []entry.Entry{e("title", "2024-01-01T00:00:03", value.String("newest"))}))
	row, ok, err = m.Get(ctx, path, value.String("title"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.String("newest"), row.Value)
}

func TestGet_Missing(t *testing.T) {
	m := createTestMirror(t)
	_, ok, err := m.Get(context.Background(), entry.Path{"x"}, value.String("k"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuery_PrefixAndNulls(t *testing.T) {
	m := createTestMirror(t)
	ctx := context.Background()
	dt := "2024-01-01T00:00:00"

	require.NoError(t, m.Apply(ctx, entry.Path{"resources", "1"}, []entry.Entry{
		e("title", dt, value.String("one")),
		e("color", dt, value.MustParse(`{"r":255}`)),
	}))
	require.NoError(t, m.Apply(ctx, entry.Path{"resources", "2"}, []entry.Entry{e("title", dt, value.Null{})}))
	require.NoError(t, m.Apply(ctx, entry.Path{"resourcesX"}, []entry.Entry{e("title", dt, value.String("x"))}))
	require.NoError(t, m.Apply(ctx, entry.Path{"info"}, []entry.Entry{e("name", dt, value.String("Tasks"))}))

	rows, err := m.Query(ctx, entry.Path{"resources"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, entry.Path{"resources", "1"}, rows[0].Path)
	assert.Equal(t, value.String("color"), rows[0].Key)
	assert.True(t, value.Equal(value.MustParse(`{"r":255}`), rows[0].Value))
	assert.Equal(t, value.String("title"), rows[1].Key)

	all, err := m.Query(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestOnEntriesUpdate(t *testing.T) {
	m := createTestMirror(t)
	ctx := context.Background()

	ok := m.OnEntriesUpdate(entry.Path{"a"}, []entry.Entry{e("k", "2024-01-01T00:00:00", value.Int(1))}, ctx)
	assert.True(t, ok)

	rows, err := m.Query(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, value.Number("1"), rows[0].Value)
}

func TestOnEntriesUpdate_ClosedDatabaseRejects(t *testing.T) {
	m := createTestMirror(t)
	require.NoError(t, m.Close())

	ok := m.OnEntriesUpdate(entry.Path{"a"}, []entry.Entry{e("k", "2024-01-01T00:00:00", value.Int(1))}, context.Background())
	assert.False(t, ok)
}

func TestEncodePathKey(t *testing.T) {
	assert.Equal(t, "", encodePathKey(nil))
	assert.Equal(t, "a\x1f", encodePathKey(entry.Path{"a"}))
	assert.Equal(t, "a\x1fb\x1f", encodePathKey(entry.Path{"a", "b"}))
}
