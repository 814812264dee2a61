package engine

import (
	"github.com/roach88/decsync/internal/bucket"
	"github.com/roach88/decsync/internal/store"
)

// LatestAppID returns the app holding the most recent entry across all
// buckets. Ties go to the own app id, and the own app id is returned when no
// app has any entries.
//
// A new installation can use it to pick the app to copy initial state from.
func (d *Decsync[T]) LatestAppID() (string, error) {
	d.dir.ResetCache()
	appIDs, err := d.dir.ListDirectories()
	if err != nil {
		return "", err
	}

	latestAppID := ""
	latestDatetime := ""
	for _, appID := range appIDs {
		for _, hash := range bucket.AllHashes() {
			entries, err := store.ReadEntries(d.dir.File(appID, hash), d.logger)
			if err != nil {
				return "", err
			}

			datetime := ""
			for _, e := range entries {
				if e.Entry.Datetime > datetime {
					datetime = e.Entry.Datetime
				}
			}
			if datetime == "" {
				continue
			}

			if latestAppID == "" || datetime > latestDatetime ||
				(appID == d.ownAppID && datetime == latestDatetime) {
				latestAppID = appID
				latestDatetime = datetime
			}
		}
	}

	if latestAppID == "" {
		return d.ownAppID, nil
	}
	return latestAppID, nil
}

// DeleteOwnEntries removes the own app subdirectory and everything in it.
// Other apps keep their copies of the entries.
func (d *Decsync[T]) DeleteOwnEntries() error {
	return d.dir.DeleteSubdir(d.ownAppID)
}
