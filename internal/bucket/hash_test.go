package bucket

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/decsync/internal/entry"
)

func TestPathToHashKnownValues(t *testing.T) {
	tests := []struct {
		path entry.Path
		want string
	}{
		{entry.Path{"info"}, Info},
		{entry.Path{"title"}, "f4"},
		{entry.Path{"resources", "123", "title"}, "8b"},
		{entry.Path{"a"}, "61"},
		{entry.Path{"info", "x"}, "a6"},
		{entry.Path{"tasks", "2"}, "f4"},
		{entry.Path{}, "00"},
	}

	for _, tt := range tests {
		t.Run(tt.path.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, PathToHash(tt.path))
		})
	}
}

func TestPathToHashDeterministic(t *testing.T) {
	path := entry.Path{"resources", "abc", "é"}
	first := PathToHash(path)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, PathToHash(entry.Path{"resources", "abc", "é"}))
	}
}

func TestPathToHashAlwaysInAllHashes(t *testing.T) {
	all := AllHashes()
	set := make(map[string]bool, len(all))
	for _, h := range all {
		set[h] = true
	}

	for i := 0; i < 2000; i++ {
		h := PathToHash(entry.Path{"resources", fmt.Sprintf("%d", i), "title"})
		assert.True(t, set[h], "hash %q not in AllHashes", h)
		assert.True(t, IsHash(h))
	}
}

func TestPathToHashDistribution(t *testing.T) {
	counts := make(map[string]int)
	const n = 25600
	for i := 0; i < n; i++ {
		counts[PathToHash(entry.Path{"resources", fmt.Sprintf("id-%d", i)})]++
	}

	// Roughly uniform: every bucket is used and none holds more than 4x its share.
	assert.Len(t, counts, Count)
	for h, c := range counts {
		assert.Less(t, c, 4*n/Count, "bucket %s is overloaded", h)
	}
}

func TestAllHashes(t *testing.T) {
	all := AllHashes()
	assert.Len(t, all, Count+1)
	assert.Equal(t, "00", all[0])
	assert.Equal(t, "ff", all[Count-1])
	assert.Equal(t, Info, all[Count])

	all[0] = "mutated"
	assert.Equal(t, "00", AllHashes()[0], "AllHashes must return a copy")
}

func TestIsHash(t *testing.T) {
	assert.True(t, IsHash("0a"))
	assert.True(t, IsHash(Info))
	assert.False(t, IsHash("sequences"))
	assert.False(t, IsHash("0A"))
	assert.False(t, IsHash("abc"))
}
