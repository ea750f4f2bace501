package matching

import (
	"context"
	"slices"
	"strconv"

	"inlay/internal/services"
	"inlay/internal/timeline"
)

// PositionalMatcher pairs the n-th window with the candidate carrying the
// n-th smallest ordinal. It requires equal counts and distinct ordinals.
type PositionalMatcher struct{}

func (PositionalMatcher) Name() string { return StrategyPositional }

func (PositionalMatcher) Match(ctx context.Context, labels []string, candidates []timeline.Asset) (Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return positional(labels, candidates)
}

func positional(labels []string, candidates []timeline.Asset) (Assignment, error) {
	if len(labels) != len(candidates) {
		return nil, services.Errorf(services.KindMatch, stageName, "positional",
			"%d window(s) but %d candidate asset(s)", len(labels), len(candidates)).
			WithLabels(labels...).WithIdentifiers(identifiers(candidates)...)
	}

	ordered := slices.Clone(candidates)
	slices.SortStableFunc(ordered, func(a, b timeline.Asset) int {
		return a.Ordinal - b.Ordinal
	})
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Ordinal == ordered[i-1].Ordinal {
			return nil, services.Errorf(services.KindMatch, stageName, "positional",
				"ordinal %s is used by more than one asset", strconv.Itoa(ordered[i].Ordinal)).
				WithIdentifiers(ordered[i-1].Identifier, ordered[i].Identifier)
		}
	}

	assignment := make(Assignment, len(labels))
	for i, label := range labels {
		assignment[label] = ordered[i].Identifier
	}
	return assignment, nil
}
