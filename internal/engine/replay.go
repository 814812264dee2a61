package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/decsync/internal/bucket"
	"github.com/roach88/decsync/internal/store"
)

// ReplayReport summarizes one ExecuteAllNewEntries pass.
type ReplayReport struct {
	// Apps is the number of remote apps visited.
	Apps int

	// BucketsRead counts remote buckets that were read and merged.
	BucketsRead int

	// BucketsSkipped counts remote buckets whose sequence was unchanged.
	// Skipped buckets are not read.
	BucketsSkipped int

	// BucketsRejected counts buckets where a listener rejected a path group.
	BucketsRejected int

	// EntriesApplied counts entries merged into the own buckets.
	EntriesApplied int

	// Failures lists buckets that could not be replayed.
	Failures []*BucketError

	// AllAccepted is false if any listener rejected a path group.
	AllAccepted bool
}

// ExecuteAllNewEntries merges every unseen remote update into the own
// buckets and dispatches the newer entries to the listeners with extra.
//
// Failures on individual remote buckets are logged, reported and retried on
// the next pass; they are not returned. The returned error is reserved for
// faults that make the whole pass meaningless, such as an unreadable shared
// directory or a failure to persist the consumed sequences.
func (d *Decsync[T]) ExecuteAllNewEntries(extra T) (ReplayReport, error) {
	report := ReplayReport{AllAccepted: true}

	d.dir.ResetCache()
	appIDs, err := d.dir.ListDirectories()
	if err != nil {
		return report, err
	}

	localFile := d.localDir.File(sequencesFile)
	local, err := store.ReadLocalSequences(localFile)
	if err != nil {
		if !errors.Is(err, store.ErrMalformedSequences) {
			return report, err
		}
		d.logger.Warn("resetting local sequences", "error", err)
	}

	ownDir := d.dir.Dir(d.ownAppID)
	updated := false
	for _, appID := range appIDs {
		if appID == d.ownAppID {
			continue
		}
		report.Apps++

		appDir := d.dir.Dir(appID)
		seqs, err := store.ReadSequences(appDir.File(sequencesFile))
		if err != nil {
			d.logger.Warn("skipping app with unreadable sequences", "remote", appID, "error", err)
			if !errors.Is(err, store.ErrMalformedSequences) {
				report.Failures = append(report.Failures, &BucketError{AppID: appID, Hash: sequencesFile, Err: err})
			}
			continue
		}

		hashes := make([]string, 0, len(seqs))
		for hash := range seqs {
			hashes = append(hashes, hash)
		}
		sort.Strings(hashes)

		for _, hash := range hashes {
			seq := seqs[hash]
			if seq == local.Get(appID, hash) {
				report.BucketsSkipped++
				continue
			}
			if !bucket.IsHash(hash) {
				d.logger.Warn("ignoring unknown bucket", "remote", appID, "bucket", hash)
				continue
			}

			entries, err := store.ReadEntries(appDir.File(hash), d.logger)
			if err != nil {
				d.recordFailure(&report, &BucketError{AppID: appID, Hash: hash, Err: err})
				continue
			}

			res, err := store.UpdateEntries(ownDir.File(hash), entries, store.UpdateOptions{
				Dispatch: d.dispatcher(extra),
				Logger:   d.logger,
			})
			if err != nil {
				d.recordFailure(&report, &BucketError{AppID: appID, Hash: hash, Err: err})
				continue
			}

			report.BucketsRead++
			report.EntriesApplied += len(res.Applied)
			if !res.OK {
				report.BucketsRejected++
				report.AllAccepted = false
				d.logger.Info("listener rejected entries, bucket will be retried",
					"remote", appID,
					"bucket", hash)
				continue
			}

			// The own sequence is left alone: other apps read the
			// original entries from appID directly.
			local.Set(appID, hash, seq)
			updated = true
		}
	}

	if updated {
		if err := store.WriteLocalSequences(localFile, local); err != nil {
			return report, fmt.Errorf("persist local sequences: %w", err)
		}
	}

	d.logger.Debug("replay finished",
		"apps", report.Apps,
		"read", report.BucketsRead,
		"skipped", report.BucketsSkipped,
		"rejected", report.BucketsRejected,
		"failed", len(report.Failures),
		"applied", report.EntriesApplied)
	return report, nil
}

func (d *Decsync[T]) recordFailure(report *ReplayReport, err *BucketError) {
	d.logger.Error("failed to replay bucket",
		"remote", err.AppID,
		"bucket", err.Hash,
		"error", err.Err)
	report.Failures = append(report.Failures, err)
}
