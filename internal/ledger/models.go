package ledger

import (
	"time"
)

// Status is the lifecycle state of a composition run.
type Status string

const (
	StatusLoaded     Status = "loaded"
	StatusMatched    Status = "matched"
	StatusReconciled Status = "reconciled"
	StatusPlanned    Status = "planned"
	StatusExecuted   Status = "executed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusLoaded,
	StatusMatched,
	StatusReconciled,
	StatusPlanned,
	StatusExecuted,
	StatusFailed,
}

// forward lists the single successor of each non-terminal state. Failed is
// reachable from every non-terminal state.
var forward = map[Status]Status{
	StatusLoaded:     StatusMatched,
	StatusMatched:    StatusReconciled,
	StatusReconciled: StatusPlanned,
	StatusPlanned:    StatusExecuted,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a string into a Status.
func ParseStatus(value string) (Status, bool) {
	for _, status := range allStatuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusExecuted || s == StatusFailed
}

// CanTransition reports whether from -> to is a legal one-way step.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	next, ok := forward[from]
	return ok && next == to
}

// predecessors returns every state that may move to the target.
func predecessors(to Status) []Status {
	var out []Status
	for _, from := range allStatuses {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// Run is one composition attempt persisted in the ledger.
type Run struct {
	ID           string
	Status       Status
	ResultCode   string
	ExitCode     int
	DryRun       bool
	Strategy     string
	WindowsPath  string
	AssetsDir    string
	BasePath     string
	OutputPath   string
	ManifestPath string
	LogPath      string
	SlotCount    int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   *time.Time
}

// Finished reports whether the run has recorded an outcome.
func (r Run) Finished() bool {
	return r.FinishedAt != nil
}

// Elapsed is the wall time between creation and finish (or now).
func (r Run) Elapsed(now time.Time) time.Duration {
	end := now
	if r.FinishedAt != nil {
		end = *r.FinishedAt
	}
	return end.Sub(r.CreatedAt)
}

// SlotRecord captures one reconciled slot of a run.
type SlotRecord struct {
	Position        int     `json:"position"`
	Label           string  `json:"label"`
	Identifier      string  `json:"identifier"`
	WindowSeconds   float64 `json:"window_seconds"`
	NativeSeconds   float64 `json:"native_seconds"`
	ResolvedSeconds float64 `json:"resolved_seconds"`
	TrimNeeded      bool    `json:"trim_needed"`
}

// Outcome is recorded when a run ends.
type Outcome struct {
	ResultCode   string
	ExitCode     int
	OutputPath   string
	ManifestPath string
	Err          error
}

// Summary aggregates run counts per status.
type Summary struct {
	Total     int
	ByStatus  map[Status]int
	Failed    int
	Succeeded int
}
