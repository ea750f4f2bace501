// Package reconcile resolves how much of each matched clip is played.
//
// The rule is fixed: the resolved duration is the shorter of the window and
// the clip, a clip longer than its window (beyond a small tolerance for probe
// rounding) is flagged for trimming, and a short clip is never padded.
package reconcile

import (
	"context"
	"time"

	"inlay/internal/services"
	"inlay/internal/timeline"
)

// DefaultEpsilon absorbs container-level rounding in probed durations.
const DefaultEpsilon = 50 * time.Millisecond

const stageName = "reconcile"

// Reconcile resolves one slot. A non-positive native duration is a probe
// failure naming the window and the asset.
func Reconcile(slot timeline.MatchedSlot, native, epsilon time.Duration) (timeline.ReconciledSlot, error) {
	if native <= 0 {
		return timeline.ReconciledSlot{}, services.Errorf(services.KindProbe, stageName, "reconcile",
			"native duration %s is not positive", native).
			WithLabels(slot.Window.Label).WithIdentifiers(slot.Asset.Identifier)
	}
	if epsilon < 0 {
		epsilon = 0
	}
	window := slot.Window.Duration()
	slot.Asset.NativeDuration = native
	return timeline.ReconciledSlot{
		MatchedSlot:      slot,
		ResolvedDuration: min(window, native),
		TrimNeeded:       native > window+epsilon,
	}, nil
}

// All reconciles every slot in order using durations keyed by asset
// identifier. Every slot with a missing or non-positive duration is reported
// in a single error.
func All(ctx context.Context, slots []timeline.MatchedSlot, durations map[string]time.Duration, epsilon time.Duration) ([]timeline.ReconciledSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]timeline.ReconciledSlot, 0, len(slots))
	var failed *services.Error
	for _, slot := range slots {
		native := durations[slot.Asset.Identifier]
		reconciled, err := Reconcile(slot, native, epsilon)
		if err != nil {
			if failed == nil {
				failed = services.Errorf(services.KindProbe, stageName, "reconcile",
					"native duration unavailable or not positive")
			}
			failed.WithLabels(slot.Window.Label).WithIdentifiers(slot.Asset.Identifier)
			continue
		}
		out = append(out, reconciled)
	}
	if failed != nil {
		return nil, failed
	}
	return out, nil
}
