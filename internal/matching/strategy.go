package matching

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"inlay/internal/services"
	"inlay/internal/timeline"
)

const stageName = "matching"

// Strategy names accepted by New.
const (
	StrategySlug       = "slug"
	StrategyPositional = "positional"
)

// Assignment maps a window label to an asset identifier.
type Assignment map[string]string

// Strategy produces an assignment for labels given in window order. It must
// not perform I/O or mutate its inputs.
type Strategy interface {
	Name() string
	Match(ctx context.Context, labels []string, candidates []timeline.Asset) (Assignment, error)
}

// New returns the named strategy.
func New(name string, minScore float64) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategySlug:
		return SlugMatcher{MinScore: minScore}, nil
	case StrategyPositional:
		return PositionalMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown matching strategy %q", name)
	}
}

// Match runs strategy over the window labels and candidates, verifies the
// result and returns one slot per window in window order.
func Match(ctx context.Context, strategy Strategy, windows *timeline.WindowSet, candidates []timeline.Asset) ([]timeline.MatchedSlot, error) {
	if strategy == nil {
		return nil, services.Errorf(services.KindMatch, stageName, "match", "no matching strategy configured")
	}
	if windows == nil || windows.Len() == 0 {
		return nil, services.Errorf(services.KindMatch, stageName, "match", "no windows to match")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := windows.Labels()
	assignment, err := strategy.Match(ctx, labels, candidates)
	if err != nil {
		if _, ok := services.AsError(err); ok {
			return nil, err
		}
		return nil, services.Wrap(services.KindMatch, stageName, strategy.Name(), "strategy failed", err).WithLabels(labels...)
	}
	if err := Verify(labels, candidates, assignment); err != nil {
		return nil, err
	}

	byID := indexCandidates(candidates)
	slots := make([]timeline.MatchedSlot, 0, windows.Len())
	for _, window := range windows.All() {
		slots = append(slots, timeline.MatchedSlot{
			Window: window,
			Asset:  byID[assignment[window.Label]],
		})
	}
	return slots, nil
}

// Verify checks that assignment is a bijection from labels onto distinct
// identifiers present in candidates.
func Verify(labels []string, candidates []timeline.Asset, assignment Assignment) error {
	byID := indexCandidates(candidates)

	var missing, unknown, extra []string
	var unknownIDs []string
	owners := make(map[string][]string, len(assignment))
	for _, label := range labels {
		id, ok := assignment[label]
		if !ok || strings.TrimSpace(id) == "" {
			missing = append(missing, label)
			continue
		}
		if _, ok := byID[id]; !ok {
			unknown = append(unknown, label)
			unknownIDs = append(unknownIDs, id)
			continue
		}
		owners[id] = append(owners[id], label)
	}
	for label := range assignment {
		if !slices.Contains(labels, label) {
			extra = append(extra, label)
		}
	}

	switch {
	case len(missing) > 0:
		return services.Errorf(services.KindMatch, stageName, "verify",
			"%d window(s) left without an asset", len(missing)).WithLabels(missing...)
	case len(unknown) > 0:
		return services.Errorf(services.KindMatch, stageName, "verify",
			"assignment references assets outside the catalog").WithLabels(unknown...).WithIdentifiers(unknownIDs...)
	case len(extra) > 0:
		slices.Sort(extra)
		return services.Errorf(services.KindMatch, stageName, "verify",
			"assignment names unknown windows").WithLabels(extra...)
	}

	ids := make([]string, 0, len(owners))
	for id := range owners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if len(owners[id]) > 1 {
			return services.Errorf(services.KindMatch, stageName, "verify",
				"asset assigned to %d windows", len(owners[id])).WithLabels(owners[id]...).WithIdentifiers(id)
		}
	}
	return nil
}

func indexCandidates(candidates []timeline.Asset) map[string]timeline.Asset {
	byID := make(map[string]timeline.Asset, len(candidates))
	for _, candidate := range candidates {
		byID[candidate.Identifier] = candidate
	}
	return byID
}

func identifiers(candidates []timeline.Asset) []string {
	ids := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.Identifier)
	}
	return ids
}
