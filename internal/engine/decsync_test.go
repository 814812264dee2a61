package engine

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/platform"
	"github.com/roach88/decsync/internal/testutil"
	"github.com/roach88/decsync/internal/value"
)

func TestNew_CreatesSharedDirectory(t *testing.T) {
	e := newEnv(t)
	e.app(t, "alice")
	assert.True(t, e.exists(t, v2Root))
}

func TestNew_WithCollection(t *testing.T) {
	mem := afero.NewMemMapFs()
	fsys := platform.NewFS(mem)
	d, err := New[string](fsys.OpenDir("/d"), fsys.OpenDir("/l"), "calendars", "work", "alice")
	require.NoError(t, err)

	assert.Equal(t, "/d/calendars/work/v2", d.Dir().Path())
	exists, err := afero.DirExists(mem, "/d/calendars/work/v2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNew_RejectsEmptyIdentifiers(t *testing.T) {
	fsys := platform.NewFS(afero.NewMemMapFs())

	_, err := New[string](fsys.OpenDir("/d"), fsys.OpenDir("/l"), "tasks", "", "")
	assert.Error(t, err)

	_, err = New[string](fsys.OpenDir("/d"), fsys.OpenDir("/l"), "", "", "alice")
	assert.Error(t, err)
}

func TestSetEntry_WritesBucketAndSequence(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")

	require.NoError(t, alice.SetEntry(entry.Path{"title"}, value.String("x"), value.String("hello")))

	assert.Equal(t,
		`["title","x","2024-01-01T00:00:00","hello"]`+"\n",
		e.read(t, v2Root+"/alice/f4"))
	assert.Equal(t, `{"f4":1}`, e.read(t, v2Root+"/alice/sequences"))
}

func TestSetEntries_IncrementsOncePerBucket(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")

	err := alice.SetEntries([]entry.EntryWithPath{
		entry.New(entry.Path{"a"}, value.String("k1"), value.Int(1), e.clock),
		entry.New(entry.Path{"a"}, value.String("k2"), value.Int(2), e.clock),
		entry.New(entry.Path{"b"}, value.String("k1"), value.Int(3), e.clock),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"61":1,"62":1}`, e.read(t, v2Root+"/alice/sequences"))

	require.NoError(t, alice.SetEntry(entry.Path{"a"}, value.String("k1"), value.Int(10)))
	assert.Equal(t, `{"61":2,"62":1}`, e.read(t, v2Root+"/alice/sequences"))
}

func TestSetEntries_InvalidUTF8WritesNothing(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")

	err := alice.SetEntries([]entry.EntryWithPath{
		entry.New(entry.Path{"title"}, value.String("x"), value.String("hello"), e.clock),
		entry.New(entry.Path{"res", "a\xffb"}, value.String("x"), value.String("v"), e.clock),
	})
	require.ErrorIs(t, err, value.ErrInvalidUTF8)
	assert.False(t, e.exists(t, v2Root+"/alice/f4"))
	assert.False(t, e.exists(t, v2Root+"/alice/sequences"))

	require.NoError(t, alice.SetEntry(entry.Path{"title"}, value.String("x"), value.String("hello")))
	before := e.read(t, v2Root+"/alice/f4")

	err = alice.SetEntry(entry.Path{"title"}, value.String("x"), value.String("bad\xc3"))
	require.ErrorIs(t, err, value.ErrInvalidUTF8)
	assert.Equal(t, before, e.read(t, v2Root+"/alice/f4"))
	assert.Equal(t, `{"f4":1}`, e.read(t, v2Root+"/alice/sequences"))
}

func TestSetEntries_Idempotent(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")
	committed := entry.New(entry.Path{"title"}, value.String("x"), value.String("hello"), e.clock)

	require.NoError(t, alice.SetEntries([]entry.EntryWithPath{committed}))
	bucketBefore := e.read(t, v2Root+"/alice/f4")

	require.NoError(t, alice.SetEntries([]entry.EntryWithPath{committed}))
	assert.Equal(t, bucketBefore, e.read(t, v2Root+"/alice/f4"))
	assert.Equal(t, `{"f4":1}`, e.read(t, v2Root+"/alice/sequences"))
}

func TestSetEntry_SameValueLaterIsNoop(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")

	require.NoError(t, alice.SetEntry(entry.Path{"title"}, value.String("x"), value.String("hello")))
	require.NoError(t, alice.SetEntry(entry.Path{"title"}, value.String("x"), value.String("hello")))

	assert.Equal(t,
		`["title","x","2024-01-01T00:00:00","hello"]`+"\n",
		e.read(t, v2Root+"/alice/f4"), "datetime advanced but the value did not")
	assert.Equal(t, `{"f4":1}`, e.read(t, v2Root+"/alice/sequences"))
}

func TestSetEntries_NothingNewWritesNoSequences(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")

	require.NoError(t, alice.SetEntries(nil))
	assert.False(t, e.exists(t, v2Root+"/alice"))
}

func TestSetEntries_MalformedOwnSequencesRestart(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")
	require.NoError(t, afero.WriteFile(e.mem, v2Root+"/alice/sequences", []byte("garbage"), 0o644))

	require.NoError(t, alice.SetEntry(entry.Path{"title"}, value.String("x"), value.String("hello")))
	assert.Equal(t, `{"f4":1}`, e.read(t, v2Root+"/alice/sequences"))
}

func TestSetEntriesForPath(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")

	err := alice.SetEntriesForPath(entry.Path{"title"}, []entry.Entry{
		{Key: value.String("x"), Datetime: "2024-02-01T00:00:00", Value: value.String("1")},
		{Key: value.String("y"), Datetime: "2024-02-01T00:00:00", Value: value.String("2")},
	})
	require.NoError(t, err)

	stored := e.read(t, v2Root+"/alice/f4")
	assert.Contains(t, stored, `["title","x","2024-02-01T00:00:00","1"]`)
	assert.Contains(t, stored, `["title","y","2024-02-01T00:00:00","2"]`)
}

func TestOwnAppID(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, "alice", e.app(t, "alice").OwnAppID())
}

func TestSetEntry_UsesInjectedClock(t *testing.T) {
	mem := afero.NewMemMapFs()
	fsys := platform.NewFS(mem)
	d, err := New[string](fsys.OpenDir("/d"), fsys.OpenDir("/l"), "tasks", "", "alice",
		WithClock(testutil.FixedClock("2030-01-01T00:00:00")))
	require.NoError(t, err)

	require.NoError(t, d.SetEntry(entry.Path{"title"}, value.String("x"), value.Null{}))
	data, err := afero.ReadFile(mem, "/d/tasks/v2/alice/f4")
	require.NoError(t, err)
	assert.Equal(t, `["title","x","2030-01-01T00:00:00",null]`+"\n", string(data))
}
