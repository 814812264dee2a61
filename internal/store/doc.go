// Package store implements the per-bucket entry log and the sequence files.
//
// A bucket file is newline-delimited JSON, one entry per line:
//
//	["resources","123","title","x","2024-01-01T00:00:00","hello"]
//
// At rest a bucket holds at most one line per (path, key). UpdateEntries
// keeps it that way: superseded lines are removed with a full rewrite (temp
// file and rename) and new lines are appended.
//
// Sequence files are JSON objects. An app's own file maps bucket hash to the
// number of times that bucket absorbed a local write; the local consumption
// file nests the same map under each remote app id.
//
// # Error Handling
//
//   - Malformed bucket lines are skipped and logged
//   - Malformed sequence files read as empty and wrap ErrMalformedSequences
//   - Filesystem errors are returned to the caller
package store
