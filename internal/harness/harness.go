package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/roach88/decsync/internal/engine"
	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/listener"
	"github.com/roach88/decsync/internal/platform"
	"github.com/roach88/decsync/internal/testutil"
	"github.com/roach88/decsync/internal/value"
)

const (
	rootPath  = "/decsync"
	localPath = "/local"
)

// Harness runs one scenario against a fresh in-memory tree.
//
// Every app opens the tree through its own platform.FS, so listing caches
// are per app, as they would be across processes. All apps share one
// deterministic clock; each set step takes the next datetime.
//
// The listener extra is the 1-based step number, which stamps dispatch
// events in the trace.
type Harness struct {
	scenario *Scenario
	fs       afero.Fs
	root     platform.Dir
	clock    *testutil.DeterministicClock
	apps     map[string]*app
	logger   *slog.Logger
	result   *Result
}

type app struct {
	id      string
	decsync *engine.Decsync[int]
	reject  map[string]bool
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Create a fresh in-memory tree and mark it with .decsync-info
// 2. Run the steps in order, creating apps on first use
// 3. Evaluate assertions against the final state
// 4. Capture every file in the tree
//
// An error is returned when a step fails outright; assertion failures are
// reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		if err := h.runStep(i+1, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.App, err)
		}
	}

	for _, a := range h.apps {
		a.reject = nil
	}
	for _, msg := range EvaluateAssertions(h, scenario.Assertions) {
		h.result.AddError(msg)
	}

	if err := h.captureFiles(); err != nil {
		return nil, err
	}
	return h.result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	clock := testutil.NewDeterministicClock()
	if scenario.Start != "" {
		clock = testutil.NewDeterministicClockAt(scenario.Start)
	}

	mem := afero.NewMemMapFs()
	h := &Harness{
		scenario: scenario,
		fs:       mem,
		root:     platform.NewFS(mem).OpenDir(rootPath),
		clock:    clock,
		apps:     make(map[string]*app),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		result:   NewResult(),
	}

	if err := engine.CheckDecsyncInfo(h.root); err != nil {
		return nil, err
	}
	return h, nil
}

// app returns the app with id, opening it on first use.
func (h *Harness) app(id string) (*app, error) {
	if a, ok := h.apps[id]; ok {
		return a, nil
	}

	fsys := platform.NewFS(h.fs)
	d, err := engine.New[int](
		fsys.OpenDir(rootPath),
		fsys.OpenDir(localPath).Dir(id),
		h.scenario.SyncType,
		h.scenario.Collection,
		id,
		engine.WithClock(h.clock),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, err
	}

	a := &app{id: id, decsync: d}
	d.AddListener(listener.Listener[int]{OnEntriesUpdate: h.recordDispatch(a)})
	h.apps[id] = a
	return a, nil
}

func (h *Harness) recordDispatch(a *app) listener.Handler[int] {
	return func(path entry.Path, entries []entry.Entry, step int) bool {
		accepted := !a.reject[path.String()]
		h.result.AddEvent(TraceEvent{
			Step:     step,
			App:      a.id,
			Type:     EventDispatch,
			Path:     path.String(),
			Entries:  formatEntries(entries),
			Accepted: accepted,
		})
		return accepted
	}
}

func (h *Harness) runStep(n int, step Step) error {
	a, err := h.app(step.App)
	if err != nil {
		return err
	}
	if step.Clock != "" {
		h.clock.Set(step.Clock)
	}
	a.reject = make(map[string]bool, len(step.Reject))
	for _, p := range step.Reject {
		a.reject[p] = true
	}

	switch {
	case len(step.Set) > 0:
		return h.set(n, a, step.Set)

	case step.Sync:
		report, err := a.decsync.ExecuteAllNewEntries(n)
		if err != nil {
			return err
		}
		h.result.AddEvent(TraceEvent{Step: n, App: a.id, Type: EventSync, Summary: summarize(report)})
		return nil

	case step.ExecuteStored != nil:
		q := step.ExecuteStored
		keys, err := convertKeys(q.Keys)
		if err != nil {
			return err
		}
		path := entry.Path(q.Path)
		var ok bool
		if q.Exact {
			ok, err = a.decsync.ExecuteStoredEntriesForPathExact(path, n, keys)
		} else {
			ok, err = a.decsync.ExecuteStoredEntriesForPathPrefix(path, n, keys)
		}
		if err != nil {
			return err
		}
		h.result.AddEvent(TraceEvent{Step: n, App: a.id, Type: EventStored, Path: path.String(), Accepted: ok})
		return nil

	case step.InitStored:
		ok, err := a.decsync.InitStoredEntries(n)
		if err != nil {
			return err
		}
		h.result.AddEvent(TraceEvent{Step: n, App: a.id, Type: EventStored, Path: entry.Path{}.String(), Accepted: ok})
		return nil

	case step.DeleteOwn:
		if err := a.decsync.DeleteOwnEntries(); err != nil {
			return err
		}
		h.result.AddEvent(TraceEvent{Step: n, App: a.id, Type: EventDelete})
		return nil
	}
	return fmt.Errorf("step has no action")
}

// set commits the entries with one shared datetime.
func (h *Harness) set(n int, a *app, set []SetEntry) error {
	datetime := h.clock.Now()
	entries := make([]entry.EntryWithPath, 0, len(set))
	for _, s := range set {
		key, err := value.FromGo(s.Key)
		if err != nil {
			return fmt.Errorf("key: %w", err)
		}
		val, err := value.FromGo(s.Value)
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		e := entry.EntryWithPath{
			Path:  entry.Path(s.Path).Clone(),
			Entry: entry.Entry{Key: key, Datetime: datetime, Value: val},
		}
		entries = append(entries, e)
		h.result.AddEvent(TraceEvent{
			Step:    n,
			App:     a.id,
			Type:    EventSet,
			Path:    e.Path.String(),
			Entries: formatEntries([]entry.Entry{e.Entry}),
		})
	}
	return a.decsync.SetEntries(entries)
}

// captureFiles records every regular file in the tree.
func (h *Harness) captureFiles() error {
	return afero.Walk(h.fs, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := afero.ReadFile(h.fs, path)
		if err != nil {
			return err
		}
		h.result.Files[path] = string(data)
		return nil
	})
}

func summarize(r engine.ReplayReport) string {
	return fmt.Sprintf("apps=%d read=%d skipped=%d rejected=%d failed=%d applied=%d",
		r.Apps, r.BucketsRead, r.BucketsSkipped, r.BucketsRejected, len(r.Failures), r.EntriesApplied)
}

// formatEntries renders entries as canonical [key, datetime, value] arrays.
func formatEntries(entries []entry.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, value.Key(value.Array{e.Key, value.String(e.Datetime), e.Value}))
	}
	return out
}

func convertKeys(keys []any) ([]value.Value, error) {
	if keys == nil {
		return nil, nil
	}
	out := make([]value.Value, 0, len(keys))
	for _, k := range keys {
		v, err := value.FromGo(k)
		if err != nil {
			return nil, fmt.Errorf("key: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
