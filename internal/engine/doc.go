// Package engine implements the version 2 sync engine over a shared
// directory tree.
//
// Every app writes only below its own subdirectory:
//
//	{root}/{syncType}/{collection}/v2/{appId}/{hash}       bucket files
//	{root}/{syncType}/{collection}/v2/{appId}/sequences    own write generations
//	{localDir}/sequences                                    generations consumed from others
//
// An external file-sync tool replicates the tree between devices. Apps never
// lock: conflicts resolve per (path, key) by last-write-wins on the entry
// datetime.
//
// # Write Path
//
// SetEntries groups entries by bucket, merges each group into the own bucket
// file (no dispatch, unchanged values dropped) and bumps the bucket's
// sequence by one if anything was absorbed.
//
// # Replay
//
// ExecuteAllNewEntries walks every other app. For each bucket whose announced
// sequence differs from the consumed one it merges the remote lines into the
// own bucket file, dispatching the newer entries to the listeners. The
// consumed sequence advances only when every path group was accepted, so
// rejected and failed buckets are retried on the next pass.
//
// A failure on one remote bucket is logged and counted in the ReplayReport;
// it never stops the pass.
//
// # Concurrency
//
// A Decsync is meant for one goroutine at a time per (syncType, collection).
// Coordination between processes happens through the files only.
package engine
