package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtDefault(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, DefaultStart, clock.Peek())
	assert.Equal(t, DefaultStart, clock.Now())
}

func TestDeterministicClock_AdvancesOneSecond(t *testing.T) {
	clock := NewDeterministicClockAt("2024-12-31T23:59:58")

	assert.Equal(t, "2024-12-31T23:59:58", clock.Now())
	assert.Equal(t, "2024-12-31T23:59:59", clock.Now())
	assert.Equal(t, "2025-01-01T00:00:00", clock.Now())
	assert.Equal(t, "2025-01-01T00:00:01", clock.Peek())
}

func TestDeterministicClock_SetAndReset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Now()
	clock.Now()

	clock.Set("2030-06-01T12:00:00")
	assert.Equal(t, "2030-06-01T12:00:00", clock.Now())

	clock.Reset()
	assert.Equal(t, DefaultStart, clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				now := clock.Now()
				mu.Lock()
				seen[now] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, numGoroutines*callsPerGoroutine, "every call must return a distinct datetime")
}

func TestFixedClock(t *testing.T) {
	clock := FixedClock("2024-05-05T05:05:05")
	assert.Equal(t, "2024-05-05T05:05:05", clock.Now())
	assert.Equal(t, clock.Now(), clock.Now())
}
