package timeline

import (
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"inlay/internal/services"
)

// TimeWindow is a labeled interval on the base timeline where an auxiliary
// clip should appear.
type TimeWindow struct {
	Label string
	Start time.Duration
	End   time.Duration
}

// Duration returns End - Start.
func (w TimeWindow) Duration() time.Duration {
	return w.End - w.Start
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s(%s-%s)", w.Label, FormatTimestamp(w.Start), FormatTimestamp(w.End))
}

// WindowSpec is one raw entry of the window input before timestamp parsing.
type WindowSpec struct {
	Label string
	Start string
	End   string
}

// WindowSet is a validated, immutable collection of windows ordered by start.
type WindowSet struct {
	windows  []TimeWindow
	index    map[string]int
	bound    time.Duration
	hasBound bool
}

// WindowOption customizes validation.
type WindowOption func(*windowOptions)

type windowOptions struct {
	baseDuration time.Duration
	bounded      bool
}

// WithBaseDuration requires every window to end at or before d.
func WithBaseDuration(d time.Duration) WindowOption {
	return func(o *windowOptions) {
		if d > 0 {
			o.baseDuration = d
			o.bounded = true
		}
	}
}

const windowStage = "windows"

// ParseWindowSet parses raw timestamps and validates the result. Labels with
// unparseable timestamps are reported together with every other violation.
func ParseWindowSet(specs []WindowSpec, opts ...WindowOption) (*WindowSet, error) {
	windows := make([]TimeWindow, 0, len(specs))
	var bad []string
	var causes []string
	for _, spec := range specs {
		start, startErr := ParseTimestamp(spec.Start)
		end, endErr := ParseTimestamp(spec.End)
		if startErr != nil || endErr != nil {
			bad = append(bad, spec.Label)
			for _, err := range []error{startErr, endErr} {
				if err != nil {
					causes = append(causes, fmt.Sprintf("%s: %v", spec.Label, err))
				}
			}
			continue
		}
		windows = append(windows, TimeWindow{Label: spec.Label, Start: start, End: end})
	}
	set, err := NewWindowSet(windows, opts...)
	if len(bad) == 0 {
		return set, err
	}
	verr := services.Wrap(services.KindValidation, windowStage, "parse", strings.Join(causes, "; "), nil).
		WithLabels(bad...)
	if serr, ok := services.AsError(err); ok {
		verr.WithLabels(serr.Labels...)
		verr.Message += "; " + serr.Message
	}
	return nil, verr
}

// NewWindowSet validates windows and returns them as an ordered set.
// Validation reports every offending label rather than stopping at the
// first problem.
func NewWindowSet(windows []TimeWindow, opts ...WindowOption) (*WindowSet, error) {
	var options windowOptions
	for _, opt := range opts {
		opt(&options)
	}

	v := &violations{}
	if len(windows) == 0 {
		v.add("", "no windows supplied")
	}

	seen := make(map[string]int, len(windows))
	for i, w := range windows {
		label := strings.TrimSpace(w.Label)
		if label == "" {
			v.add(fmt.Sprintf("#%d", i+1), "empty label")
			continue
		}
		if label != w.Label {
			v.add(w.Label, "label has surrounding whitespace")
		}
		if _, dup := seen[label]; dup {
			v.add(label, "duplicate label")
		}
		seen[label] = i
		if w.Start < 0 {
			v.add(label, "negative start")
		}
		if w.Start >= w.End {
			v.add(label, fmt.Sprintf("start %s is not before end %s", FormatTimestamp(w.Start), FormatTimestamp(w.End)))
		}
		if options.bounded && w.End > options.baseDuration {
			v.add(label, fmt.Sprintf("end %s exceeds base duration %s", FormatTimestamp(w.End), FormatTimestamp(options.baseDuration)))
		}
	}

	sorted := make([]TimeWindow, len(windows))
	copy(sorted, windows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})
	// Any earlier window still open at cur.Start overlaps it, not only the
	// immediate predecessor.
	for i := 1; i < len(sorted); i++ {
		cur := sorted[i]
		for _, prev := range sorted[:i] {
			if prev.End > cur.Start {
				v.add(prev.Label, fmt.Sprintf("overlaps %s", cur.Label))
				v.add(cur.Label, fmt.Sprintf("overlaps %s", prev.Label))
			}
		}
	}

	if err := v.err(); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(sorted))
	for i, w := range sorted {
		index[w.Label] = i
	}
	return &WindowSet{
		windows:  sorted,
		index:    index,
		bound:    options.baseDuration,
		hasBound: options.bounded,
	}, nil
}

// Len returns the number of windows.
func (s *WindowSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.windows)
}

// Windows returns a copy of the windows sorted by start.
func (s *WindowSet) Windows() []TimeWindow {
	if s == nil {
		return nil
	}
	out := make([]TimeWindow, len(s.windows))
	copy(out, s.windows)
	return out
}

// All yields (position, window) pairs in start order. Positions are 0-based.
// The sequence can be ranged over any number of times.
func (s *WindowSet) All() iter.Seq2[int, TimeWindow] {
	return func(yield func(int, TimeWindow) bool) {
		if s == nil {
			return
		}
		for i, w := range s.windows {
			if !yield(i, w) {
				return
			}
		}
	}
}

// Labels returns window labels in start order.
func (s *WindowSet) Labels() []string {
	if s == nil {
		return nil
	}
	labels := make([]string, len(s.windows))
	for i, w := range s.windows {
		labels[i] = w.Label
	}
	return labels
}

// Lookup returns the window with the given label.
func (s *WindowSet) Lookup(label string) (TimeWindow, bool) {
	if s == nil {
		return TimeWindow{}, false
	}
	i, ok := s.index[label]
	if !ok {
		return TimeWindow{}, false
	}
	return s.windows[i], true
}

// Position returns the 1-based position of label in start order, or 0.
func (s *WindowSet) Position(label string) int {
	if s == nil {
		return 0
	}
	i, ok := s.index[label]
	if !ok {
		return 0
	}
	return i + 1
}

// Span returns the earliest start and latest end across all windows.
func (s *WindowSet) Span() (time.Duration, time.Duration) {
	if s == nil || len(s.windows) == 0 {
		return 0, 0
	}
	return s.windows[0].Start, s.windows[len(s.windows)-1].End
}

// BaseDuration returns the bound the set was validated against, if any.
func (s *WindowSet) BaseDuration() (time.Duration, bool) {
	if s == nil {
		return 0, false
	}
	return s.bound, s.hasBound
}

type violations struct {
	labels  []string
	reasons []string
}

func (v *violations) add(label, reason string) {
	if label != "" {
		v.labels = append(v.labels, label)
		reason = label + ": " + reason
	}
	v.reasons = append(v.reasons, reason)
}

func (v *violations) err() error {
	if len(v.reasons) == 0 {
		return nil
	}
	return services.Wrap(services.KindValidation, windowStage, "validate", strings.Join(v.reasons, "; "), nil).
		WithLabels(v.labels...)
}
