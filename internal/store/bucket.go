package store

import (
	"fmt"
	"log/slog"

	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/platform"
	"github.com/roach88/decsync/internal/value"
)

// DispatchFunc offers candidate entries to the listener layer. It returns the
// entries that were accepted and whether every group was accepted.
type DispatchFunc func(candidates []entry.EntryWithPath) (accepted []entry.EntryWithPath, ok bool)

// UpdateOptions controls UpdateEntries.
type UpdateOptions struct {
	// Dispatch, when non-nil, is called with the candidates that are newer
	// than what is stored. Rejected candidates are not merged.
	// Local commits leave it nil.
	Dispatch DispatchFunc

	// RequireNewValue also drops candidates whose value equals the stored
	// value, even if their datetime is newer. Set for local commits.
	RequireNewValue bool

	// Logger receives malformed-line warnings. Nil means slog.Default().
	Logger *slog.Logger
}

// Result reports what UpdateEntries did.
type Result struct {
	// Applied are the candidates that were appended to the bucket file.
	Applied []entry.EntryWithPath

	// Rewritten is true if superseded lines were removed from the file.
	Rewritten bool

	// OK is false if Dispatch rejected any path group.
	OK bool
}

// ReadEntries decodes every line of file. Malformed lines are logged and
// skipped. A missing file reads as empty.
func ReadEntries(file platform.File, logger *slog.Logger) ([]entry.EntryWithPath, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lines, err := file.ReadLines()
	if err != nil {
		return nil, fmt.Errorf("read bucket: %w", err)
	}

	entries := make([]entry.EntryWithPath, 0, len(lines))
	for i, line := range lines {
		e, err := entry.ParseLine(line)
		if err != nil {
			logger.Warn("skipping malformed line",
				"file", file.Path(),
				"line", i+1,
				"error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// UpdateEntries merges candidates into the bucket file using last-write-wins
// per (path, key):
//
//  1. Read the stored entries. Later lines overwrite earlier ones.
//  2. Drop candidates that are not strictly newer than the stored entry, or
//     (with RequireNewValue) whose value equals the stored value.
//  3. Offer the survivors to Dispatch, if set, and drop rejected groups.
//  4. Remove the stored entries the survivors supersede.
//  5. If any were removed, rewrite the file with the remaining stored entries.
//  6. Append the survivors.
//
// Candidates are first collapsed per (path, key) to the one with the latest
// datetime, so a bucket never gains two lines for the same identity.
func UpdateEntries(file platform.File, candidates []entry.EntryWithPath, opts UpdateOptions) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stored, err := ReadEntries(file, logger)
	if err != nil {
		return Result{}, err
	}

	var storedOrder []string
	storedByID := make(map[string]entry.EntryWithPath, len(stored))
	for _, e := range stored {
		id := e.Stored().ID()
		if _, exists := storedByID[id]; !exists {
			storedOrder = append(storedOrder, id)
		}
		storedByID[id] = e
	}

	survivors := make([]entry.EntryWithPath, 0, len(candidates))
	for _, c := range collapse(candidates) {
		old, exists := storedByID[c.Stored().ID()]
		if !exists {
			survivors = append(survivors, c)
			continue
		}
		if c.Entry.Datetime <= old.Entry.Datetime {
			continue
		}
		if opts.RequireNewValue && value.Equal(c.Entry.Value, old.Entry.Value) {
			continue
		}
		survivors = append(survivors, c)
	}

	result := Result{OK: true}
	if opts.Dispatch != nil && len(survivors) > 0 {
		survivors, result.OK = opts.Dispatch(survivors)
	}

	// Encode before touching the file so a bad entry never leaves the
	// bucket half rewritten.
	lines, err := entry.ToLines(survivors)
	if err != nil {
		return Result{}, err
	}

	removed := false
	for _, s := range survivors {
		id := s.Stored().ID()
		if _, exists := storedByID[id]; exists {
			delete(storedByID, id)
			removed = true
		}
	}

	if removed {
		remaining := make([]entry.EntryWithPath, 0, len(storedByID))
		for _, id := range storedOrder {
			if e, ok := storedByID[id]; ok {
				remaining = append(remaining, e)
			}
		}
		kept, err := entry.ToLines(remaining)
		if err != nil {
			return Result{}, err
		}
		if err := file.WriteLines(kept, false); err != nil {
			return Result{}, fmt.Errorf("rewrite bucket: %w", err)
		}
		result.Rewritten = true
	}

	if err := file.WriteLines(lines, true); err != nil {
		return Result{}, fmt.Errorf("append bucket: %w", err)
	}

	result.Applied = survivors
	return result, nil
}

// collapse keeps one candidate per (path, key): the one with the latest
// datetime, the last one on ties. Survivors keep the position of the first
// candidate for their identity.
func collapse(candidates []entry.EntryWithPath) []entry.EntryWithPath {
	out := make([]entry.EntryWithPath, 0, len(candidates))
	index := make(map[string]int, len(candidates))
	for _, c := range candidates {
		id := c.Stored().ID()
		i, exists := index[id]
		if !exists {
			index[id] = len(out)
			out = append(out, c)
			continue
		}
		if c.Entry.Datetime >= out[i].Entry.Datetime {
			out[i] = c
		}
	}
	return out
}
