package platform

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemDir(t *testing.T) (Dir, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	return NewFS(mem).OpenDir("/root"), mem
}

func TestReadLinesMissingFile(t *testing.T) {
	root, _ := newMemDir(t)
	lines, err := root.File("missing").ReadLines()
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestWriteLinesReplaceAndAppend(t *testing.T) {
	root, mem := newMemDir(t)
	f := root.File("app", "0a")

	require.NoError(t, f.WriteLines([]string{"one", "two"}, false))
	require.NoError(t, f.WriteLines([]string{"three"}, true))

	lines, err := f.ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)

	require.NoError(t, f.WriteLines([]string{"only"}, false))
	lines, err = f.ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, lines)

	data, err := afero.ReadFile(mem, "/root/app/0a")
	require.NoError(t, err)
	assert.Equal(t, "only\n", string(data))
}

func TestWriteLinesReplaceLeavesNoTempFiles(t *testing.T) {
	root, mem := newMemDir(t)
	require.NoError(t, root.File("d", "f").WriteLines([]string{"x"}, false))
	require.NoError(t, root.File("d", "f").WriteLines([]string{"y"}, false))

	infos, err := afero.ReadDir(mem, "/root/d")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "f", infos[0].Name())
}

func TestAppendNothingDoesNotCreateFile(t *testing.T) {
	root, mem := newMemDir(t)
	require.NoError(t, root.File("d", "f").WriteLines(nil, true))

	exists, err := afero.Exists(mem, "/root/d/f")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReadLinesSkipsBlankLines(t *testing.T) {
	root, mem := newMemDir(t)
	require.NoError(t, afero.WriteFile(mem, "/root/f", []byte("a\n\nb\r\n\n"), 0o644))

	lines, err := root.File("f").ReadLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestReadWriteText(t *testing.T) {
	root, _ := newMemDir(t)
	f := root.File("sequences")

	_, ok, err := f.ReadText()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.WriteText(`{"0a":1}`))
	text, ok, err := f.ReadText()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"0a":1}`, text)
}

func TestListDirectoriesCaching(t *testing.T) {
	root, mem := newMemDir(t)
	require.NoError(t, root.Dir("alice").Mkdir())

	names, err := root.ListDirectories()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names)

	// Created behind the cache's back, e.g. by the file-sync client.
	require.NoError(t, mem.MkdirAll("/root/bob", 0o755))
	names, err = root.ListDirectories()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names, "listing must be served from cache")

	root.ResetCache()
	names, err = root.ListDirectories()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}

func TestListDirectoriesSeesOwnWrites(t *testing.T) {
	root, _ := newMemDir(t)
	names, err := root.ListDirectories()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, root.File("carol", "0a").WriteLines([]string{"x"}, true))
	names, err = root.ListDirectories()
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, names)
}

func TestListDirectoriesSkipsFiles(t *testing.T) {
	root, _ := newMemDir(t)
	require.NoError(t, root.File("sequences").WriteText("{}"))
	require.NoError(t, root.Dir("app").Mkdir())

	names, err := root.ListDirectories()
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, names)
}

func TestDeleteSubdir(t *testing.T) {
	root, mem := newMemDir(t)
	require.NoError(t, root.File("alice", "0a").WriteLines([]string{"x"}, false))
	require.NoError(t, root.Dir("bob").Mkdir())

	_, err := root.ListDirectories()
	require.NoError(t, err)

	require.NoError(t, root.DeleteSubdir("alice"))
	names, err := root.ListDirectories()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, names)

	exists, err := afero.DirExists(mem, "/root/alice")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNameEncoding(t *testing.T) {
	root, _ := newMemDir(t)
	names := []string{"my app/1", ".hidden", "..", "100%", "plain-id_1"}
	for _, name := range names {
		require.NoError(t, root.Dir(name).Mkdir())
	}

	listed, err := root.ListDirectories()
	require.NoError(t, err)
	assert.ElementsMatch(t, names, listed)

	for _, name := range names {
		encoded := EncodeName(name)
		assert.NotContains(t, encoded, "/")
		assert.NotEqual(t, '.', rune(encoded[0]), "encoded %q", encoded)
		decoded, err := DecodeName(encoded)
		require.NoError(t, err)
		assert.Equal(t, name, decoded)
	}
}

func TestOSDir(t *testing.T) {
	tmp := t.TempDir()
	root := NewOSDir(tmp)
	require.NoError(t, root.File("app", "sequences").WriteText("{}"))

	names, err := root.ListDirectories()
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, names)
	assert.Equal(t, filepath.Join(tmp, "app", "sequences"), root.File("app", "sequences").Path())
}

func TestDecsyncSubdir(t *testing.T) {
	root, _ := newMemDir(t)
	assert.Equal(t, "/root/contacts", DecsyncSubdir(root, "contacts", "").Path())
	assert.Equal(t, "/root/contacts/work", DecsyncSubdir(root, "contacts", "work").Path())
}

func TestRawFileKeepsName(t *testing.T) {
	root, mem := newMemDir(t)
	require.NoError(t, root.RawFile(".decsync-info").WriteText(`{"version":2}`))

	exists, err := afero.Exists(mem, "/root/.decsync-info")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "/root/%2Edecsync-info", root.File(".decsync-info").Path())
}
