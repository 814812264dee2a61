package harness

// Trace event types.
const (
	EventSet      = "set"
	EventSync     = "sync"
	EventDispatch = "dispatch"
	EventStored   = "stored"
	EventDelete   = "delete_own"
)

// TraceEvent is one observable effect of a step, in execution order.
type TraceEvent struct {
	Step int    `json:"step"` // 1-based step number
	App  string `json:"app"`
	Type string `json:"type"`

	// Path and Entries are set for set and dispatch events. Entries are
	// canonical [key, datetime, value] arrays.
	Path    string   `json:"path,omitempty"`
	Entries []string `json:"entries,omitempty"`

	// Accepted is the listener's answer for dispatch events, and whether
	// every group was accepted for stored events.
	Accepted bool `json:"accepted,omitempty"`

	// Summary is the replay report of a sync event.
	Summary string `json:"summary,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every set, sync and dispatch in order.
	Trace []TraceEvent `json:"trace"`

	// Files maps every file in the in-memory tree to its contents, for
	// golden comparison.
	Files map[string]string `json:"files"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Files:  make(map[string]string),
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends an event to the trace.
func (r *Result) AddEvent(event TraceEvent) {
	r.Trace = append(r.Trace, event)
}

// Dispatches returns the dispatch events delivered to app.
func (r *Result) Dispatches(app string) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == EventDispatch && e.App == app {
			out = append(out, e)
		}
	}
	return out
}
