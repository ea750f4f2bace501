package workflow

import (
	"context"
	"time"

	"inlay/internal/executor"
	"inlay/internal/ledger"
	"inlay/internal/media/ffprobe"
	"inlay/internal/plan"
	"inlay/internal/services"
	"inlay/internal/timeline"
)

// MediaProber inspects the base video and reports asset durations.
type MediaProber interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// Request is everything one run needs. Windows must already be validated;
// the runner rebinds them to the base duration before any asset work.
type Request struct {
	Windows *timeline.WindowSet
	Assets  []timeline.Asset

	BasePath string
	// BaseDuration skips probing the base for its length when positive.
	BaseDuration time.Duration
	// Frame overrides the configured and probed frame when non-zero.
	Frame plan.Frame

	// OutputPath defaults to a timestamped name under paths.output_dir.
	OutputPath string
	// ManifestPath defaults to <output>.manifest.json. Dry runs write a
	// manifest only when it is set.
	ManifestPath string
	DryRun       bool

	// WindowsPath and AssetsDir are recorded in the ledger.
	WindowsPath string
	AssetsDir   string
}

// Report describes how far a run got and what it produced. Run always
// returns a report, even on failure.
type Report struct {
	RunID        string
	State        ledger.Status
	Result       services.ResultCode
	Strategy     string
	BasePath     string
	BaseDuration time.Duration
	Frame        plan.Frame
	Slots        []timeline.ReconciledSlot
	Plan         *plan.Plan
	Output       executor.Result
	OutputPath   string
	ManifestPath string
	StartedAt    time.Time
	FinishedAt   time.Time
	Err          error
}

// Elapsed is the wall time of the run.
func (r *Report) Elapsed() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TrimCount counts slots whose clip is cut to fit its window.
func (r *Report) TrimCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, slot := range r.Slots {
		if slot.TrimNeeded {
			n++
		}
	}
	return n
}
