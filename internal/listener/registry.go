package listener

import (
	"log/slog"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/value"
)

// Registry is an ordered list of listeners. First match wins.
//
// A Registry is not safe for concurrent mutation; register listeners before
// the first Dispatch.
type Registry[T any] struct {
	listeners []Listener[T]
	logger    *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger means slog.Default().
func NewRegistry[T any](logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[T]{logger: logger}
}

// Add appends l. Listeners added earlier take precedence.
func (r *Registry[T]) Add(l Listener[T]) {
	r.listeners = append(r.listeners, l)
}

// Len returns the number of registered listeners.
func (r *Registry[T]) Len() int {
	return len(r.listeners)
}

// Find returns the first listener that matches path.
func (r *Registry[T]) Find(path entry.Path) (Listener[T], bool) {
	for _, l := range r.listeners {
		if l.matches(path) {
			return l, true
		}
	}
	return Listener[T]{}, false
}

// Dispatch groups entries by exact path, in order of first appearance, and
// calls the matching handler once per group.
//
// accepted holds the entries of every group that was accepted, in their
// original order. ok is false if any handler rejected its group; the other
// groups are still dispatched.
func (r *Registry[T]) Dispatch(entries []entry.EntryWithPath, extra T) (accepted []entry.EntryWithPath, ok bool) {
	type group struct {
		path    entry.Path
		entries []entry.Entry
	}

	var order []string
	groups := make(map[string]*group)
	for _, e := range entries {
		id := pathID(e.Path)
		g, exists := groups[id]
		if !exists {
			g = &group{path: e.Path}
			groups[id] = g
			order = append(order, id)
		}
		g.entries = append(g.entries, e.Entry)
	}

	ok = true
	rejected := make(map[string]bool)
	for _, id := range order {
		g := groups[id]
		l, found := r.Find(g.path)
		if !found {
			r.logger.Warn("no listener for path",
				"path", g.path.String(),
				"entries", len(g.entries))
			continue
		}
		if !l.OnEntriesUpdate(g.path.Clone(), g.entries, extra) {
			r.logger.Debug("listener rejected entries",
				"path", g.path.String(),
				"entries", len(g.entries))
			rejected[id] = true
			ok = false
		}
	}

	accepted = make([]entry.EntryWithPath, 0, len(entries))
	for _, e := range entries {
		if !rejected[pathID(e.Path)] {
			accepted = append(accepted, e)
		}
	}
	return accepted, ok
}

func pathID(p entry.Path) string {
	segments := make(value.Array, len(p))
	for i, s := range p {
		segments[i] = value.String(s)
	}
	return value.Key(segments)
}
