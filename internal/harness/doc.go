// Package harness runs multi-app sync scenarios against an in-memory
// decsync directory.
//
// Each scenario creates a fresh afero.MemMapFs, marks it with
// .decsync-info and lets several apps take turns: setting entries,
// replaying each other's buckets and dispatching their own stored entries.
// Every listener call is recorded, so a scenario can reject paths and see
// the retry on the next sync.
//
// # Scenario Format
//
//	name: lww_two_apps
//	description: "Newer write from another app wins on sync"
//	sync_type: tasks
//	steps:
//	  - app: alice
//	    set:
//	      - path: [tasks, "1"]
//	        key: title
//	        value: Buy milk
//	  - app: bob
//	    sync: true
//	    reject: ["/tasks/1"]
//	assertions:
//	  - type: stored
//	    app: bob
//	    path: [tasks, "1"]
//	    key: title
//	    value: Buy milk
//
// # Assertion Types
//
//   - stored: the value (or absence) of a key in an app's own bucket
//   - count: EntriesCount below a prefix across all apps
//   - static_info: the merged value of an info key
//   - latest_app: the app an app's LatestAppID picks
//   - dispatch_count: how many listener calls an app received
//   - active_apps: the app directories present
//
// # Deterministic Testing
//
// All apps share a testutil.DeterministicClock, so every set step gets the
// next second starting at 2024-01-01T00:00:00. Snapshot renders the trace
// and every file of the tree for golden comparison with RunWithGolden.
package harness
