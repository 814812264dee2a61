package entry

import (
	"strings"

	"github.com/roach88/decsync/internal/value"
)

// Path identifies a logical resource, e.g. ["resources", "123", "title"].
// Treat a Path as immutable once constructed.
type Path []string

// Equal reports whether p and other have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading subsequence of p.
// The empty prefix matches every path.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return Path(p[:len(prefix)]).Equal(prefix)
}

// String renders the path for logs, e.g. "/resources/123/title".
func (p Path) String() string {
	return "/" + strings.Join(p, "/")
}

// Clone returns a copy of p that shares no storage with it.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Entry records that at Datetime the field Key was set to Value.
// Datetime is an ISO-8601 UTC string (yyyy-MM-ddTHH:mm:ss); string order is
// chronological order.
type Entry struct {
	Key      value.Value
	Datetime string
	Value    value.Value
}

// Equal reports whether e and other have equal keys, datetimes and values.
func (e Entry) Equal(other Entry) bool {
	return e.Datetime == other.Datetime &&
		value.Equal(e.Key, other.Key) &&
		value.Equal(e.Value, other.Value)
}

// EntryWithPath is the unit of storage, transport and merge.
type EntryWithPath struct {
	Path  Path
	Entry Entry
}

// Equal reports whether e and other have equal paths and entries.
func (e EntryWithPath) Equal(other EntryWithPath) bool {
	return e.Path.Equal(other.Path) && e.Entry.Equal(other.Entry)
}

// Stored returns the (path, key) identity of e.
func (e EntryWithPath) Stored() StoredEntry {
	return StoredEntry{Path: e.Path, Key: e.Entry.Key}
}

// StoredEntry is the (path, key) identity under which at most one effective
// value is kept.
type StoredEntry struct {
	Path Path
	Key  value.Value
}

// ID returns a string identity for s, usable as a map key. Two stored entries
// have the same ID iff their paths are equal and their keys are structurally
// equal.
func (s StoredEntry) ID() string {
	segments := make(value.Array, 0, len(s.Path)+1)
	for _, segment := range s.Path {
		segments = append(segments, value.String(segment))
	}
	segments = append(segments, s.Key)
	return value.Key(segments)
}

// Datetimer supplies the current time as an ISO-8601 UTC string.
// platform.Clock satisfies it.
type Datetimer interface {
	Now() string
}

// New creates an EntryWithPath stamped with the current time from clock.
func New(path Path, key, val value.Value, clock Datetimer) EntryWithPath {
	return EntryWithPath{
		Path: path.Clone(),
		Entry: Entry{
			Key:      key,
			Datetime: clock.Now(),
			Value:    val,
		},
	}
}

// WithPath attaches path to every entry.
func WithPath(path Path, entries []Entry) []EntryWithPath {
	out := make([]EntryWithPath, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryWithPath{Path: path.Clone(), Entry: e})
	}
	return out
}
