package testutil

import (
	"sync"
	"time"

	"github.com/roach88/decsync/internal/platform"
)

// DefaultStart is the first datetime returned by a DeterministicClock created
// with NewDeterministicClock.
const DefaultStart = "2024-01-01T00:00:00"

// DeterministicClock provides a thread-safe, strictly increasing datetime
// source for tests.
//
// Each call to Now returns the previous value advanced by one second, so two
// writes in the same test never share a timestamp unless the test pins one
// with Set.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	next  time.Time
}

// NewDeterministicClock creates a clock whose first Now() is DefaultStart.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultStart)
}

// NewDeterministicClockAt creates a clock whose first Now() is start.
// It panics if start is not in platform.DatetimeLayout.
func NewDeterministicClockAt(start string) *DeterministicClock {
	t, err := platform.ParseDatetime(start)
	if err != nil {
		panic(err)
	}
	return &DeterministicClock{start: t, next: t}
}

// Now returns the next datetime and advances the clock by one second.
func (c *DeterministicClock) Now() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Second)
	return platform.FormatDatetime(now)
}

// Peek returns the datetime the next Now() will return, without advancing.
func (c *DeterministicClock) Peek() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return platform.FormatDatetime(c.next)
}

// Set pins the next Now() to datetime. Later calls continue one second
// apart from there.
func (c *DeterministicClock) Set(datetime string) {
	t, err := platform.ParseDatetime(datetime)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = t
}

// Reset rewinds the clock to its start.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}

// FixedClock always returns the same datetime.
type FixedClock string

// Now returns c.
func (c FixedClock) Now() string {
	return string(c)
}
