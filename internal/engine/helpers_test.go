package engine

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/platform"
	"github.com/roach88/decsync/internal/testutil"
)

const (
	testSyncType = "tasks"
	rootPath     = "/decsync"
	v2Root       = "/decsync/tasks/v2"
)

// env is a shared tree that several apps see through their own listing
// caches, as separate processes would.
type env struct {
	mem      afero.Fs
	failing  *testutil.FailingFs
	counting *testutil.CountingFs
	clock    *testutil.DeterministicClock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := afero.NewMemMapFs()
	failing := testutil.NewFailingFs(mem)
	return &env{
		mem:      mem,
		failing:  failing,
		counting: testutil.NewCountingFs(failing),
		clock:    testutil.NewDeterministicClock(),
	}
}

func (e *env) root() platform.Dir {
	return platform.NewFS(e.counting).OpenDir(rootPath)
}

func (e *env) app(t *testing.T, appID string) *Decsync[string] {
	t.Helper()
	fsys := platform.NewFS(e.counting)
	d, err := New[string](
		fsys.OpenDir(rootPath),
		fsys.OpenDir("/local/"+appID),
		testSyncType,
		"",
		appID,
		WithClock(e.clock),
	)
	require.NoError(t, err)
	return d
}

func (e *env) read(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(e.mem, path)
	require.NoError(t, err)
	return string(data)
}

func (e *env) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(e.mem, path)
	require.NoError(t, err)
	return ok
}

type dispatchCall struct {
	path    entry.Path
	entries []entry.Entry
	extra   string
}

// recorder is a listener that records every call and rejects the paths in
// reject.
type recorder struct {
	calls  []dispatchCall
	reject map[string]bool
}

func newRecorder(reject ...string) *recorder {
	r := &recorder{reject: make(map[string]bool)}
	for _, p := range reject {
		r.reject[p] = true
	}
	return r
}

func (r *recorder) handle(path entry.Path, entries []entry.Entry, extra string) bool {
	r.calls = append(r.calls, dispatchCall{path: path, entries: entries, extra: extra})
	return !r.reject[path.String()]
}

func (r *recorder) paths() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.path.String())
	}
	return out
}
