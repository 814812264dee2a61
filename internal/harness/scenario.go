package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/decsync/internal/platform"
)

// Scenario defines a conformance scenario: several apps sharing one
// in-memory decsync directory, a sequence of steps and assertions on the
// final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SyncType and Collection select the shared subdirectory.
	SyncType   string `yaml:"sync_type"`
	Collection string `yaml:"collection,omitempty"`

	// Start is the first datetime handed out by the shared clock.
	// Defaults to testutil.DefaultStart.
	Start string `yaml:"start,omitempty"`

	// Steps run in order. Apps are created on first use.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one action by one app. Exactly one action field must be set.
type Step struct {
	// App is the app id performing the step.
	App string `yaml:"app"`

	// Set commits the entries in one call, sharing one datetime.
	Set []SetEntry `yaml:"set,omitempty"`

	// Sync runs one replay pass.
	Sync bool `yaml:"sync,omitempty"`

	// ExecuteStored dispatches the app's stored entries.
	ExecuteStored *StoredQuery `yaml:"execute_stored,omitempty"`

	// InitStored dispatches every stored entry of the app.
	InitStored bool `yaml:"init_stored,omitempty"`

	// DeleteOwn removes the app's directory.
	DeleteOwn bool `yaml:"delete_own,omitempty"`

	// Reject lists paths ("/tasks/1") the app's listener rejects during
	// this step only.
	Reject []string `yaml:"reject,omitempty"`

	// Clock pins the shared clock before the step runs.
	Clock string `yaml:"clock,omitempty"`
}

// SetEntry is one entry to commit. A missing value is null (a delete).
type SetEntry struct {
	Path  []string `yaml:"path"`
	Key   any      `yaml:"key"`
	Value any      `yaml:"value"`
}

// StoredQuery selects stored entries for ExecuteStored.
type StoredQuery struct {
	Path  []string `yaml:"path"`
	Exact bool     `yaml:"exact,omitempty"`
	Keys  []any    `yaml:"keys,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "stored": the app's own stored value for (path, key)
	// - "count": EntriesCount below path across all apps
	// - "static_info": the merged info value for key
	// - "latest_app": the app's LatestAppID
	// - "dispatch_count": number of listener calls made to the app
	// - "active_apps": the app directories present
	Type string `yaml:"type"`

	// App is the app the assertion is evaluated as (stored, latest_app,
	// dispatch_count).
	App string `yaml:"app,omitempty"`

	// Path is the entry path (stored) or prefix (count).
	Path []string `yaml:"path,omitempty"`

	// Key is the entry key (stored, static_info).
	Key any `yaml:"key,omitempty"`

	// Value is the expected value (stored, static_info). With Absent the
	// entry must not exist.
	Value  any  `yaml:"value,omitempty"`
	Absent bool `yaml:"absent,omitempty"`

	// Count is the expected number (count, dispatch_count).
	Count int `yaml:"count,omitempty"`

	// Expect is the expected app id (latest_app).
	Expect string `yaml:"expect,omitempty"`

	// Apps is the expected app list (active_apps).
	Apps []string `yaml:"apps,omitempty"`
}

// Assertion type constants.
const (
	AssertStored        = "stored"
	AssertCount         = "count"
	AssertStaticInfo    = "static_info"
	AssertLatestApp     = "latest_app"
	AssertDispatchCount = "dispatch_count"
	AssertActiveApps    = "active_apps"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.SyncType == "" {
		return fmt.Errorf("sync_type is required")
	}
	if s.Start != "" {
		if _, err := platform.ParseDatetime(s.Start); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	if step.App == "" {
		return fmt.Errorf("steps[%d]: app is required", index)
	}

	actions := 0
	if len(step.Set) > 0 {
		actions++
	}
	for _, set := range []bool{step.Sync, step.ExecuteStored != nil, step.InitStored, step.DeleteOwn} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("steps[%d]: exactly one of set, sync, execute_stored, init_stored, delete_own is required", index)
	}

	for j, e := range step.Set {
		if e.Key == nil {
			return fmt.Errorf("steps[%d].set[%d]: key is required", index, j)
		}
	}
	if step.Clock != "" {
		if _, err := platform.ParseDatetime(step.Clock); err != nil {
			return fmt.Errorf("steps[%d].clock: %w", index, err)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStored:
		if a.App == "" || a.Key == nil {
			return fmt.Errorf("assertions[%d]: app and key are required for stored", index)
		}
	case AssertStaticInfo:
		if a.Key == nil {
			return fmt.Errorf("assertions[%d]: key is required for static_info", index)
		}
	case AssertLatestApp:
		if a.App == "" || a.Expect == "" {
			return fmt.Errorf("assertions[%d]: app and expect are required for latest_app", index)
		}
	case AssertDispatchCount:
		if a.App == "" {
			return fmt.Errorf("assertions[%d]: app is required for dispatch_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertActiveApps:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
