package harness

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text: the trace, one event per line,
// followed by every file of the tree in path order.
func Snapshot(scenarioName string, result *Result) []byte {
	var buf strings.Builder

	fmt.Fprintf(&buf, "# %s\n", scenarioName)
	fmt.Fprintf(&buf, "\n## trace\n")
	for _, event := range result.Trace {
		buf.WriteString(renderEvent(event))
		buf.WriteByte('\n')
	}

	paths := make([]string, 0, len(result.Files))
	for p := range result.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fmt.Fprintf(&buf, "\n## files\n")
	for _, p := range paths {
		content := result.Files[p]
		fmt.Fprintf(&buf, "--- %s\n", p)
		buf.WriteString(content)
		if content != "" && !strings.HasSuffix(content, "\n") {
			buf.WriteByte('\n')
		}
	}
	return []byte(buf.String())
}

func renderEvent(e TraceEvent) string {
	prefix := fmt.Sprintf("%d %s %s", e.Step, e.App, e.Type)
	switch e.Type {
	case EventSet:
		return fmt.Sprintf("%s %s %s", prefix, e.Path, strings.Join(e.Entries, " "))
	case EventDispatch:
		return fmt.Sprintf("%s %s %s %s", prefix, e.Path, strings.Join(e.Entries, " "), verdict(e.Accepted))
	case EventSync:
		return fmt.Sprintf("%s %s", prefix, e.Summary)
	case EventStored:
		return fmt.Sprintf("%s %s %s", prefix, e.Path, verdict(e.Accepted))
	default:
		return prefix
	}
}

func verdict(accepted bool) string {
	if accepted {
		return "accepted"
	}
	return "rejected"
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Snapshot(scenarioName, result))
}
