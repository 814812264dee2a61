// Package bucket shards the unbounded path space into a fixed set of bucket
// files.
//
// The hash must be identical across runs, platforms and implementations: a
// path that hashes differently on two devices ends up in two different files
// and exact-path lookups on one device miss the other's entries.
package bucket

import (
	"fmt"

	"github.com/roach88/decsync/internal/entry"
)

// Info is the reserved bucket for the static ["info"] path.
const Info = "info"

// Count is the number of regular (hex) buckets.
const Count = 256

const (
	segmentMultiplier = 19
	pathMultiplier    = 199
)

var allHashes = buildAllHashes()

// PathToHash maps a path to its bucket name.
//
// ["info"] always maps to Info. Every other path maps to two lowercase hex
// digits: each segment's UTF-8 bytes are folded with a polynomial hash, and
// the segment hashes are folded again over the path.
func PathToHash(path entry.Path) string {
	if isInfoPath(path) {
		return Info
	}

	hash := 0
	for _, segment := range path {
		hash = (hash*pathMultiplier + segmentHash(segment)) % Count
	}
	return fmt.Sprintf("%02x", hash)
}

// AllHashes returns every possible PathToHash output: the Count hex buckets
// followed by Info. The returned slice is a copy.
func AllHashes() []string {
	out := make([]string, len(allHashes))
	copy(out, allHashes)
	return out
}

// IsHash reports whether name is a bucket file name.
func IsHash(name string) bool {
	if name == Info {
		return true
	}
	if len(name) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		c := name[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

func segmentHash(s string) int {
	hash := 0
	for _, b := range []byte(s) {
		hash = (hash*segmentMultiplier + int(b)) % Count
	}
	return hash
}

func isInfoPath(path entry.Path) bool {
	return len(path) == 1 && path[0] == "info"
}

func buildAllHashes() []string {
	hashes := make([]string, 0, Count+1)
	for i := 0; i < Count; i++ {
		hashes = append(hashes, fmt.Sprintf("%02x", i))
	}
	return append(hashes, Info)
}
