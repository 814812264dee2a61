package engine

import (
	"github.com/roach88/decsync/internal/bucket"
	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/store"
	"github.com/roach88/decsync/internal/value"
)

// ExecuteStoredEntriesForPathExact dispatches the own stored entries for
// exactly path. If keys is non-nil only entries whose key is in keys are
// dispatched. Reports whether every group was accepted.
//
// Use it to bring a newly registered listener up to date without waiting for
// remote writes.
func (d *Decsync[T]) ExecuteStoredEntriesForPathExact(path entry.Path, extra T, keys []value.Value) (bool, error) {
	return d.executeStoredEntriesForHash(bucket.PathToHash(path), func(p entry.Path) bool {
		return p.Equal(path)
	}, extra, keys)
}

// ExecuteStoredEntriesForPathPrefix dispatches the own stored entries whose
// path starts with prefix. A prefix can span buckets, so every bucket is
// visited, including after a rejection.
func (d *Decsync[T]) ExecuteStoredEntriesForPathPrefix(prefix entry.Path, extra T, keys []value.Value) (bool, error) {
	allOK := true
	for _, hash := range bucket.AllHashes() {
		ok, err := d.executeStoredEntriesForHash(hash, func(p entry.Path) bool {
			return p.HasPrefix(prefix)
		}, extra, keys)
		if err != nil {
			return false, err
		}
		allOK = allOK && ok
	}
	return allOK, nil
}

// ExecuteStoredEntry dispatches the own stored entry for (path, key), if any.
func (d *Decsync[T]) ExecuteStoredEntry(path entry.Path, key value.Value, extra T) (bool, error) {
	return d.ExecuteStoredEntriesForPathExact(path, extra, []value.Value{key})
}

// InitStoredEntries dispatches every own stored entry. Call it once after
// registering listeners on a fresh local database.
func (d *Decsync[T]) InitStoredEntries(extra T) (bool, error) {
	return d.ExecuteStoredEntriesForPathPrefix(nil, extra, nil)
}

func (d *Decsync[T]) executeStoredEntriesForHash(
	hash string,
	match func(entry.Path) bool,
	extra T,
	keys []value.Value,
) (bool, error) {
	stored, err := store.ReadEntries(d.dir.File(d.ownAppID, hash), d.logger)
	if err != nil {
		return false, err
	}

	selected := make([]entry.EntryWithPath, 0, len(stored))
	for _, e := range stored {
		if !match(e.Path) {
			continue
		}
		if keys != nil && !value.Contains(keys, e.Entry.Key) {
			continue
		}
		selected = append(selected, e)
	}
	if len(selected) == 0 {
		return true, nil
	}

	_, ok := d.listeners.Dispatch(selected, extra)
	return ok, nil
}
