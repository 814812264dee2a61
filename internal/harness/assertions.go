package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/decsync/internal/bucket"
	"github.com/roach88/decsync/internal/engine"
	"github.com/roach88/decsync/internal/entry"
	"github.com/roach88/decsync/internal/store"
	"github.com/roach88/decsync/internal/value"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", renderEvent(event))
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the harness state and
// returns one message per failure.
func EvaluateAssertions(h *Harness, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(h, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(h *Harness, a Assertion) error {
	switch a.Type {
	case AssertStored:
		return assertStored(h, a)
	case AssertCount:
		return assertCount(h, a)
	case AssertStaticInfo:
		return assertStaticInfo(h, a)
	case AssertLatestApp:
		return assertLatestApp(h, a)
	case AssertDispatchCount:
		return assertDispatchCount(h, a)
	case AssertActiveApps:
		return assertActiveApps(h, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertStored reads the app's own bucket for the path and compares the
// value stored for the key.
func assertStored(h *Harness, a Assertion) error {
	target, err := h.app(a.App)
	if err != nil {
		return err
	}
	key, err := value.FromGo(a.Key)
	if err != nil {
		return err
	}

	path := entry.Path(a.Path)
	stored, err := store.ReadEntries(target.decsync.Dir().File(a.App, bucket.PathToHash(path)), h.logger)
	if err != nil {
		return err
	}

	var found *entry.Entry
	for i := range stored {
		if stored[i].Path.Equal(path) && value.Equal(stored[i].Entry.Key, key) {
			found = &stored[i].Entry
		}
	}

	actual := "absent"
	if found != nil {
		actual = value.Key(found.Value)
	}

	if a.Absent {
		if found != nil {
			return h.fail(a.Type, fmt.Sprintf("%s %s absent in %s", path, value.Key(key), a.App), actual)
		}
		return nil
	}

	want, err := value.FromGo(a.Value)
	if err != nil {
		return err
	}
	if found == nil || !value.Equal(found.Value, want) {
		return h.fail(a.Type, fmt.Sprintf("%s %s = %s in %s", path, value.Key(key), value.Key(want), a.App), actual)
	}
	return nil
}

func assertCount(h *Harness, a Assertion) error {
	count, err := engine.EntriesCount(h.root, h.scenario.SyncType, h.scenario.Collection,
		entry.Path(a.Path), engine.WithLogger(h.logger))
	if err != nil {
		return err
	}
	if count != a.Count {
		return h.fail(a.Type,
			fmt.Sprintf("%d live entries below %s", a.Count, entry.Path(a.Path)),
			fmt.Sprintf("%d", count))
	}
	return nil
}

func assertStaticInfo(h *Harness, a Assertion) error {
	key, err := value.FromGo(a.Key)
	if err != nil {
		return err
	}
	want, err := value.FromGo(a.Value)
	if err != nil {
		return err
	}

	info, err := engine.StaticInfo(h.root, h.scenario.SyncType, h.scenario.Collection, engine.WithLogger(h.logger))
	if err != nil {
		return err
	}

	actual := "absent"
	for _, e := range info {
		if value.Equal(e.Key, key) {
			actual = value.Key(e.Value)
			if !a.Absent && value.Equal(e.Value, want) {
				return nil
			}
		}
	}
	if a.Absent && actual == "absent" {
		return nil
	}

	expected := value.Key(want)
	if a.Absent {
		expected = "absent"
	}
	return h.fail(a.Type, fmt.Sprintf("info %s = %s", value.Key(key), expected), actual)
}

func assertLatestApp(h *Harness, a Assertion) error {
	target, err := h.app(a.App)
	if err != nil {
		return err
	}
	latest, err := target.decsync.LatestAppID()
	if err != nil {
		return err
	}
	if latest != a.Expect {
		return h.fail(a.Type, fmt.Sprintf("latest app seen by %s is %s", a.App, a.Expect), latest)
	}
	return nil
}

func assertDispatchCount(h *Harness, a Assertion) error {
	got := len(h.result.Dispatches(a.App))
	if got != a.Count {
		return h.fail(a.Type, fmt.Sprintf("%d listener calls to %s", a.Count, a.App), fmt.Sprintf("%d", got))
	}
	return nil
}

func assertActiveApps(h *Harness, a Assertion) error {
	apps, err := engine.ActiveApps(h.root, h.scenario.SyncType, h.scenario.Collection)
	if err != nil {
		return err
	}

	want := append([]string(nil), a.Apps...)
	got := append([]string(nil), apps...)
	sort.Strings(want)
	sort.Strings(got)
	if strings.Join(want, ",") != strings.Join(got, ",") {
		return h.fail(a.Type, "["+strings.Join(want, ", ")+"]", "["+strings.Join(got, ", ")+"]")
	}
	return nil
}

func (h *Harness) fail(assertionType, expected, actual string) *AssertionError {
	return &AssertionError{
		Type:     assertionType,
		Expected: expected,
		Actual:   actual,
		Trace:    h.result.Trace,
	}
}
