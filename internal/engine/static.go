package engine

import (
	"sort"

	"github.com/roach88/decsync/internal/bucket"
	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/platform"
	"github.com/roach88/decsync/internal/store"
	"github.com/roach88/decsync/internal/value"
)

// InfoPath is the path of the static info entries, e.g. a collection's name
// and color.
var InfoPath = entry.Path{"info"}

// StaticInfo merges the info entries of every app, latest datetime per key,
// without opening an engine. Entries are sorted by canonical key.
func StaticInfo(decsyncDir platform.Dir, syncType, collection string, opts ...Option) ([]entry.Entry, error) {
	o := buildOptions(opts)
	dir := v2Dir(decsyncDir, syncType, collection)
	dir.ResetCache()
	appIDs, err := dir.ListDirectories()
	if err != nil {
		return nil, err
	}

	hash := bucket.PathToHash(InfoPath)
	winners := make(map[string]entry.Entry)
	for _, appID := range appIDs {
		entries, err := store.ReadEntries(dir.File(appID, hash), o.logger)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.Path.Equal(InfoPath) {
				continue
			}
			id := value.Key(e.Entry.Key)
			if old, ok := winners[id]; !ok || e.Entry.Datetime > old.Datetime {
				winners[id] = e.Entry
			}
		}
	}

	ids := make([]string, 0, len(winners))
	for id := range winners {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	info := make([]entry.Entry, 0, len(ids))
	for _, id := range ids {
		info = append(info, winners[id])
	}
	return info, nil
}

// EntriesCount counts the (path, key) pairs below prefix, across all apps,
// whose latest value is not null.
func EntriesCount(decsyncDir platform.Dir, syncType, collection string, prefix entry.Path, opts ...Option) (int, error) {
	o := buildOptions(opts)
	dir := v2Dir(decsyncDir, syncType, collection)
	dir.ResetCache()
	appIDs, err := dir.ListDirectories()
	if err != nil {
		return 0, err
	}

	winners := make(map[string]entry.Entry)
	for _, appID := range appIDs {
		for _, hash := range bucket.AllHashes() {
			entries, err := store.ReadEntries(dir.File(appID, hash), o.logger)
			if err != nil {
				return 0, err
			}
			for _, e := range entries {
				if !e.Path.HasPrefix(prefix) {
					continue
				}
				id := e.Stored().ID()
				if old, ok := winners[id]; !ok || e.Entry.Datetime > old.Datetime {
					winners[id] = e.Entry
				}
			}
		}
	}

	count := 0
	for _, e := range winners {
		if !value.IsNull(e.Value) {
			count++
		}
	}
	return count, nil
}

// ActiveApps lists the app ids with a subdirectory in the shared tree.
func ActiveApps(decsyncDir platform.Dir, syncType, collection string) ([]string, error) {
	dir := v2Dir(decsyncDir, syncType, collection)
	dir.ResetCache()
	return dir.ListDirectories()
}

// DeleteApp removes appID's subdirectory from the shared tree.
func DeleteApp(decsyncDir platform.Dir, syncType, collection, appID string) error {
	return v2Dir(decsyncDir, syncType, collection).DeleteSubdir(appID)
}
