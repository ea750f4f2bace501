package matching

import (
	"context"
	"math"
	"slices"

	"inlay/internal/services"
	"inlay/internal/textutil"
	"inlay/internal/timeline"
)

// DefaultMinScore is the lowest token overlap accepted as a confident match.
const DefaultMinScore = 0.5

const scoreTolerance = 1e-9

// SlugMatcher assigns assets by token overlap between window labels and the
// slugs embedded in asset identifiers (or the original label recorded by the
// download collaborator, when present).
type SlugMatcher struct {
	MinScore float64
}

func (SlugMatcher) Name() string { return StrategySlug }

// pick is the outcome for a single window.
type pick struct {
	label     string
	position  int
	candidate int
	score     float64
	tied      []int
}

func (p pick) confident() bool { return p.candidate >= 0 }

func (m SlugMatcher) Match(ctx context.Context, labels []string, candidates []timeline.Asset) (Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	minScore := m.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	candidateTokens := make([][][]string, len(candidates))
	for i, candidate := range candidates {
		candidateTokens[i] = [][]string{textutil.Tokens(candidate.Slug)}
		if candidate.Hint != "" {
			candidateTokens[i] = append(candidateTokens[i], textutil.Tokens(candidate.Hint))
		}
	}

	picks := make([]pick, len(labels))
	for i, label := range labels {
		picks[i] = bestCandidate(label, i+1, candidates, candidateTokens, minScore)
	}
	resolveConflicts(picks, candidates)

	var tiedLabels, tiedIDs []string
	for _, p := range picks {
		if len(p.tied) == 0 {
			continue
		}
		tiedLabels = append(tiedLabels, p.label)
		for _, idx := range p.tied {
			tiedIDs = append(tiedIDs, candidates[idx].Identifier)
		}
	}
	if len(tiedLabels) > 0 {
		return nil, services.Errorf(services.KindMatch, stageName, "slug",
			"unresolved tie after ordinal tie-break").WithLabels(tiedLabels...).WithIdentifiers(tiedIDs...)
	}

	assignment := make(Assignment, len(labels))
	var unmatched []string
	for _, p := range picks {
		if p.confident() {
			assignment[p.label] = candidates[p.candidate].Identifier
			continue
		}
		unmatched = append(unmatched, p.label)
	}
	if len(unmatched) == 0 {
		return assignment, nil
	}

	if len(labels) != len(candidates) {
		return nil, services.Errorf(services.KindMatch, stageName, "slug",
			"%d window(s) have no confident match; positional fallback needs equal counts (%d windows, %d candidates)",
			len(unmatched), len(labels), len(candidates)).WithLabels(unmatched...)
	}
	fallback, err := positional(labels, candidates)
	if err != nil {
		if serr, ok := services.AsError(err); ok {
			return nil, serr.WithLabels(unmatched...)
		}
		return nil, err
	}
	for label, id := range assignment {
		if fallback[label] != id {
			return nil, services.Errorf(services.KindMatch, stageName, "slug",
				"positional fallback contradicts slug match").WithLabels(label).WithIdentifiers(id, fallback[label])
		}
	}
	return fallback, nil
}

func bestCandidate(label string, position int, candidates []timeline.Asset, tokens [][][]string, minScore float64) pick {
	labelTokens := textutil.Tokens(label)
	result := pick{label: label, position: position, candidate: -1}

	best := -1.0
	var top []int
	for i := range candidates {
		score := 0.0
		for _, variant := range tokens[i] {
			score = math.Max(score, textutil.Jaccard(labelTokens, variant))
		}
		switch {
		case score > best+scoreTolerance:
			best = score
			top = append(top[:0], i)
		case math.Abs(score-best) <= scoreTolerance:
			top = append(top, i)
		}
	}
	if best < minScore-scoreTolerance || len(top) == 0 {
		return result
	}
	result.score = best
	if len(top) == 1 {
		result.candidate = top[0]
		return result
	}

	var byOrdinal []int
	for _, idx := range top {
		if candidates[idx].Ordinal == position {
			byOrdinal = append(byOrdinal, idx)
		}
	}
	if len(byOrdinal) == 1 {
		result.candidate = byOrdinal[0]
		return result
	}
	result.tied = top
	return result
}

// resolveConflicts settles candidates claimed by more than one window. The
// higher score wins, then the window whose position equals the candidate
// ordinal. Losers are left without a confident match; an undecidable claim
// turns every top contender into a tie.
func resolveConflicts(picks []pick, candidates []timeline.Asset) {
	claims := make(map[int][]int)
	for i, p := range picks {
		if p.confident() {
			claims[p.candidate] = append(claims[p.candidate], i)
		}
	}
	keys := make([]int, 0, len(claims))
	for candidate := range claims {
		keys = append(keys, candidate)
	}
	slices.Sort(keys)

	for _, candidate := range keys {
		claimants := claims[candidate]
		if len(claimants) < 2 {
			continue
		}
		best := -1.0
		for _, idx := range claimants {
			best = math.Max(best, picks[idx].score)
		}
		var top []int
		for _, idx := range claimants {
			if math.Abs(picks[idx].score-best) <= scoreTolerance {
				top = append(top, idx)
			}
		}
		winner := -1
		if len(top) == 1 {
			winner = top[0]
		} else {
			var byOrdinal []int
			for _, idx := range top {
				if picks[idx].position == candidates[candidate].Ordinal {
					byOrdinal = append(byOrdinal, idx)
				}
			}
			if len(byOrdinal) == 1 {
				winner = byOrdinal[0]
			}
		}
		for _, idx := range claimants {
			if idx == winner {
				continue
			}
			if winner < 0 && slices.Contains(top, idx) {
				picks[idx].tied = []int{candidate}
			}
			picks[idx].candidate = -1
		}
	}
}
