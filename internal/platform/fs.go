package platform

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Dir is the directory capability the engine needs.
type Dir interface {
	// Dir returns a handle to a (possibly missing) descendant directory.
	Dir(names ...string) Dir
	// File returns a handle to a (possibly missing) descendant file.
	File(names ...string) File
	// RawFile returns a handle to a child file whose name is used verbatim,
	// for well-known files such as ".decsync-info".
	RawFile(name string) File
	// ListDirectories returns the decoded names of the subdirectories.
	// A missing directory lists as empty. Results are cached until ResetCache.
	ListDirectories() ([]string, error)
	// Mkdir creates the directory and its parents.
	Mkdir() error
	// ResetCache drops cached listings for this directory and everything below it.
	ResetCache()
	// DeleteSubdir removes the named subdirectory and its contents.
	DeleteSubdir(name string) error
	// Path returns the on-disk path.
	Path() string
}

// File is the file capability the engine needs.
type File interface {
	// ReadLines returns the non-empty lines of the file.
	// A missing file reads as no lines.
	ReadLines() ([]string, error)
	// WriteLines replaces the file contents with lines, or appends them when
	// appendLines is true.
	WriteLines(lines []string, appendLines bool) error
	// ReadText returns the file contents; ok is false when the file is missing.
	ReadText() (text string, ok bool, err error)
	// WriteText replaces the file contents with text.
	WriteText(text string) error
	// Path returns the on-disk path.
	Path() string
}

// FS binds an afero filesystem to a shared listing cache.
// Use afero.NewOsFs in production and afero.NewMemMapFs in tests.
type FS struct {
	fs    afero.Fs
	cache *listingCache
}

// NewFS wraps fsys.
func NewFS(fsys afero.Fs) *FS {
	return &FS{fs: fsys, cache: newListingCache()}
}

// OpenDir returns a Dir handle rooted at path.
func (f *FS) OpenDir(path string) Dir {
	return &dir{fs: f, path: filepath.Clean(path)}
}

// Afero exposes the underlying filesystem.
func (f *FS) Afero() afero.Fs {
	return f.fs
}

// NewOSDir returns a Dir on the real filesystem.
func NewOSDir(path string) Dir {
	return NewFS(afero.NewOsFs()).OpenDir(path)
}

type dir struct {
	fs   *FS
	path string
}

func (d *dir) Path() string { return d.path }

func (d *dir) Dir(names ...string) Dir {
	return &dir{fs: d.fs, path: d.join(names)}
}

func (d *dir) File(names ...string) File {
	return &file{fs: d.fs, path: d.join(names)}
}

func (d *dir) RawFile(name string) File {
	return &file{fs: d.fs, path: filepath.Join(d.path, name)}
}

func (d *dir) join(names []string) string {
	parts := make([]string, 0, len(names)+1)
	parts = append(parts, d.path)
	for _, name := range names {
		parts = append(parts, EncodeName(name))
	}
	return filepath.Join(parts...)
}

func (d *dir) ListDirectories() ([]string, error) {
	if names, ok := d.fs.cache.get(d.path); ok {
		return names, nil
	}

	infos, err := afero.ReadDir(d.fs.fs, d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", d.path, err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		name, err := DecodeName(info.Name())
		if err != nil {
			// Not written by us; skip rather than fail the listing.
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	d.fs.cache.put(d.path, names)
	return names, nil
}

func (d *dir) Mkdir() error {
	if err := d.fs.fs.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", d.path, err)
	}
	d.fs.cache.invalidateAncestors(d.path)
	return nil
}

func (d *dir) ResetCache() {
	d.fs.cache.invalidateTree(d.path)
}

func (d *dir) DeleteSubdir(name string) error {
	target := d.join([]string{name})
	if err := d.fs.fs.RemoveAll(target); err != nil {
		return fmt.Errorf("delete %s: %w", target, err)
	}
	d.fs.cache.invalidateTree(target)
	d.fs.cache.invalidateAncestors(target)
	return nil
}

type file struct {
	fs   *FS
	path string
}

func (f *file) Path() string { return f.path }

func (f *file) ReadLines() ([]string, error) {
	data, err := afero.ReadFile(f.fs.fs, f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return lines, nil
}

func (f *file) WriteLines(lines []string, appendLines bool) error {
	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	if appendLines {
		if len(lines) == 0 {
			return nil
		}
		return f.append(buf.Bytes())
	}
	return f.replace(buf.Bytes())
}

func (f *file) ReadText() (string, bool, error) {
	data, err := afero.ReadFile(f.fs.fs, f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", f.path, err)
	}
	return string(data), true, nil
}

func (f *file) WriteText(text string) error {
	return f.replace([]byte(text))
}

func (f *file) ensureParent() error {
	parent := filepath.Dir(f.path)
	if err := f.fs.fs.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", parent, err)
	}
	f.fs.cache.invalidateAncestors(parent)
	return nil
}

func (f *file) append(data []byte) error {
	if err := f.ensureParent(); err != nil {
		return err
	}

	out, err := f.fs.fs.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	if _, err := out.Write(data); err != nil {
		_ = out.Close()
		return fmt.Errorf("append %s: %w", f.path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.path, err)
	}
	return nil
}

// replace writes data to a temp file in the same directory and renames it
// over the target, so readers see either the old or the new contents.
func (f *file) replace(data []byte) error {
	if err := f.ensureParent(); err != nil {
		return err
	}

	tmp, err := afero.TempFile(f.fs.fs, filepath.Dir(f.path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", f.path, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = f.fs.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.path, err)
	}
	if err := f.fs.fs.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename %s: %w", f.path, err)
	}

	success = true
	return nil
}

// listingCache memoizes directory listings by cleaned path.
type listingCache struct {
	mu      sync.Mutex
	entries map[string][]string
}

func newListingCache() *listingCache {
	return &listingCache{entries: make(map[string][]string)}
}

func (c *listingCache) get(path string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	names, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	out := make([]string, len(names))
	copy(out, names)
	return out, true
}

func (c *listingCache) put(path string, names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := make([]string, len(names))
	copy(stored, names)
	c.entries[path] = stored
}

// invalidateAncestors drops path and every ancestor listing, since creating
// path may have added a new child to any of them.
func (c *listingCache) invalidateAncestors(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		delete(c.entries, p)
		if parent := filepath.Dir(p); parent == p {
			return
		}
	}
}

func (c *listingCache) invalidateTree(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	root := filepath.Clean(path)
	prefix := root + string(filepath.Separator)
	for p := range c.entries {
		if p == root || strings.HasPrefix(p, prefix) {
			delete(c.entries, p)
		}
	}
}
