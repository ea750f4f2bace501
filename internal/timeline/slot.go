package timeline

import "time"

// Asset is an externally sourced auxiliary clip. Identifier is the catalog
// file name ({ordinal}_{slug}.{ext}); NativeDuration stays zero until the
// asset has been probed.
type Asset struct {
	Identifier     string
	Ordinal        int
	Slug           string
	Ext            string
	Path           string
	Hint           string
	NativeDuration time.Duration
}

// MatchedSlot joins a window to exactly one asset.
type MatchedSlot struct {
	Window TimeWindow
	Asset  Asset
}

// ReconciledSlot is a matched slot with its playable duration resolved.
type ReconciledSlot struct {
	MatchedSlot
	ResolvedDuration time.Duration
	TrimNeeded       bool
}

// End is the point on the base timeline where the slot's overlay stops.
func (s ReconciledSlot) End() time.Duration {
	return s.Window.Start + s.ResolvedDuration
}

// ShortFall is how much of the window the asset leaves uncovered.
func (s ReconciledSlot) ShortFall() time.Duration {
	gap := s.Window.Duration() - s.ResolvedDuration
	if gap < 0 {
		return 0
	}
	return gap
}
