// Package listener routes merged entries to the host application.
//
// A Registry holds listeners in registration order. Dispatch groups entries by
// exact path, hands each group to the first listener whose predicate matches
// the path, and drops the groups whose handler reports failure. Paths nobody
// listens to are logged and accepted, so one unknown path never blocks the
// rest of a bucket.
package listener

import (
	"github.com/roach88/decsync/internal/entry"
)

// Handler receives every entry for one path in a single call and reports
// whether the host applied them. Returning false rejects the whole group:
// the entries are not merged and will be offered again on the next replay.
type Handler[T any] func(path entry.Path, entries []entry.Entry, extra T) bool

// Predicate decides whether a listener handles path.
type Predicate func(path entry.Path) bool

// Listener pairs a path predicate with a handler.
type Listener[T any] struct {
	// Match selects the paths this listener handles. A nil Match handles
	// every path.
	Match Predicate

	OnEntriesUpdate Handler[T]
}

func (l Listener[T]) matches(path entry.Path) bool {
	return l.Match == nil || l.Match(path)
}

// Exact matches only path itself.
func Exact(path entry.Path) Predicate {
	want := path.Clone()
	return func(p entry.Path) bool {
		return p.Equal(want)
	}
}

// Prefix matches prefix and every path below it.
func Prefix(prefix entry.Path) Predicate {
	want := prefix.Clone()
	return func(p entry.Path) bool {
		return p.HasPrefix(want)
	}
}

// Pattern matches paths segment by segment. A "*" segment matches any single
// segment; a final "**" matches zero or more remaining segments.
//
//	Pattern("resources", "*", "title")  matches ["resources","1","title"]
//	Pattern("resources", "**")          matches ["resources"] and everything below
func Pattern(segments ...string) Predicate {
	pattern := append([]string(nil), segments...)
	return func(p entry.Path) bool {
		return matchPattern(pattern, p)
	}
}

func matchPattern(pattern []string, path entry.Path) bool {
	for i, seg := range pattern {
		if seg == "**" && i == len(pattern)-1 {
			return true
		}
		if i >= len(path) {
			return false
		}
		if seg != "*" && seg != path[i] {
			return false
		}
	}
	return len(path) == len(pattern)
}
