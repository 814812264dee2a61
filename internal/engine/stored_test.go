package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/value"
)

func seedStored(t *testing.T, e *env, d *Decsync[string]) {
	t.Helper()
	require.NoError(t, d.SetEntries([]entry.EntryWithPath{
		entry.New(entry.Path{"resources", "1"}, value.String("title"), value.String("one"), e.clock),
		entry.New(entry.Path{"resources", "1"}, value.String("color"), value.String("red"), e.clock),
		entry.New(entry.Path{"resources", "2"}, value.String("title"), value.String("two"), e.clock),
		entry.New(entry.Path{"info"}, value.String("name"), value.String("Tasks"), e.clock),
	}))
}

func TestExecuteStoredEntriesForPathExact(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")
	seedStored(t, e, alice)
	rec := newRecorder()
	alice.AddPathListener(nil, rec.handle)

	ok, err := alice.ExecuteStoredEntriesForPathExact(entry.Path{"resources", "1"}, "init", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, entry.Path{"resources", "1"}, rec.calls[0].path)
	assert.Len(t, rec.calls[0].entries, 2)
	assert.Equal(t, "init", rec.calls[0].extra)
}

func TestExecuteStoredEntriesForPathExact_KeyFilter(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")
	seedStored(t, e, alice)
	rec := newRecorder()
	alice.AddPathListener(nil, rec.handle)

	ok, err := alice.ExecuteStoredEntriesForPathExact(entry.Path{"resources", "1"}, "", []value.Value{value.String("color")})
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, rec.calls, 1)
	require.Len(t, rec.calls[0].entries, 1)
	assert.Equal(t, value.String("red"), rec.calls[0].entries[0].Value)

	ok, err = alice.ExecuteStoredEntry(entry.Path{"resources", "1"}, value.String("missing"), "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, rec.calls, 1, "no stored entry, no dispatch")
}

func TestExecuteStoredEntriesForPathExact_Rejected(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")
	seedStored(t, e, alice)
	alice.AddPathListener(nil, newRecorder("/resources/2").handle)

	ok, err := alice.ExecuteStoredEntriesForPathExact(entry.Path{"resources", "2"}, "", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExecuteStoredEntriesForPathPrefix(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")
	seedStored(t, e, alice)
	rec := newRecorder()
	alice.AddPathListener(nil, rec.handle)

	ok, err := alice.ExecuteStoredEntriesForPathPrefix(entry.Path{"resources"}, "", nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{"/resources/1", "/resources/2"}, rec.paths())
}

func TestExecuteStoredEntriesForPathPrefix_VisitsAllBucketsAfterRejection(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")
	seedStored(t, e, alice)
	// ["resources","1"] lives in bucket e0, ["resources","2"] in e1.
	rec := newRecorder("/resources/1")
	alice.AddPathListener(nil, rec.handle)

	ok, err := alice.ExecuteStoredEntriesForPathPrefix(entry.Path{"resources"}, "", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"/resources/1", "/resources/2"}, rec.paths())
}

func TestInitStoredEntries(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")
	seedStored(t, e, alice)
	rec := newRecorder()
	alice.AddPathListener(nil, rec.handle)

	ok, err := alice.InitStoredEntries("")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{"/resources/1", "/resources/2", "/info"}, rec.paths())
}

func TestExecuteStoredEntries_OnlyOwnApp(t *testing.T) {
	e := newEnv(t)
	alice := e.app(t, "alice")
	bob := e.app(t, "bob")
	seedStored(t, e, bob)
	rec := newRecorder()
	alice.AddPathListener(nil, rec.handle)

	ok, err := alice.InitStoredEntries("")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rec.calls)
}
