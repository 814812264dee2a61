package store

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/platform"
	"github.com/roach88/decsync/internal/value"
)

type testBucket struct {
	file platform.File
	mem  afero.Fs
	path string
}

func newTestBucket(t *testing.T) testBucket {
	t.Helper()
	mem := afero.NewMemMapFs()
	dir := platform.NewFS(mem).OpenDir("/v2")
	return testBucket{file: dir.File("alice", "f4"), mem: mem, path: "/v2/alice/f4"}
}

func (b testBucket) raw(t *testing.T) string {
	t.Helper()
	data, err := afero.ReadFile(b.mem, b.path)
	require.NoError(t, err)
	return string(data)
}

func (b testBucket) read(t *testing.T) []entry.EntryWithPath {
	t.Helper()
	entries, err := ReadEntries(b.file, nil)
	require.NoError(t, err)
	return entries
}

func mk(path entry.Path, key, datetime string, val value.Value) entry.EntryWithPath {
	return entry.EntryWithPath{
		Path:  path,
		Entry: entry.Entry{Key: value.String(key), Datetime: datetime, Value: val},
	}
}

const (
	t1 = "2024-01-01T00:00:01"
	t2 = "2024-01-01T00:00:02"
	t3 = "2024-01-01T00:00:03"
)
