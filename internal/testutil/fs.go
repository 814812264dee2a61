package testutil

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// CountingFs wraps an afero.Fs and counts read-only opens per path.
//
// Tests use it to assert that replay skips bucket files whose sequence has
// not changed: a skipped bucket must show zero reads.
type CountingFs struct {
	afero.Fs

	mu    sync.Mutex
	reads map[string]int
}

// NewCountingFs wraps base.
func NewCountingFs(base afero.Fs) *CountingFs {
	return &CountingFs{Fs: base, reads: make(map[string]int)}
}

// Open counts the open and delegates to the wrapped filesystem.
func (c *CountingFs) Open(name string) (afero.File, error) {
	c.record(name)
	return c.Fs.Open(name)
}

// OpenFile counts read-only opens and delegates to the wrapped filesystem.
func (c *CountingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		c.record(name)
	}
	return c.Fs.OpenFile(name, flag, perm)
}

// Reads returns how often path was opened for reading since the last Reset.
func (c *CountingFs) Reads(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[filepath.Clean(path)]
}

// Reset clears all counters.
func (c *CountingFs) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads = make(map[string]int)
}

func (c *CountingFs) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads[filepath.Clean(name)]++
}

// FailingFs wraps an afero.Fs and makes reads of selected paths fail.
type FailingFs struct {
	afero.Fs

	mu   sync.Mutex
	fail map[string]error
}

// NewFailingFs wraps base with no failures configured.
func NewFailingFs(base afero.Fs) *FailingFs {
	return &FailingFs{Fs: base, fail: make(map[string]error)}
}

// FailReads makes every read of path return err until Clear is called.
func (f *FailingFs) FailReads(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[filepath.Clean(path)] = err
}

// Clear removes all configured failures.
func (f *FailingFs) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = make(map[string]error)
}

// Open fails for configured paths and delegates otherwise.
func (f *FailingFs) Open(name string) (afero.File, error) {
	if err := f.failure(name); err != nil {
		return nil, err
	}
	return f.Fs.Open(name)
}

// OpenFile fails read-only opens of configured paths and delegates otherwise.
func (f *FailingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		if err := f.failure(name); err != nil {
			return nil, err
		}
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *FailingFs) failure(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err, ok := f.fail[filepath.Clean(name)]
	if !ok {
		return nil
	}
	return &os.PathError{Op: "open", Path: name, Err: err}
}
