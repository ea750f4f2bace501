package plan

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"inlay/internal/services"
	"inlay/internal/timeline"
)

const (
	stageName   = "plan"
	baseVideo   = "0:v"
	baseAudio   = "0:a?"
	baseOutput  = "base"
	assetPrefix = "v"
	chainPrefix = "ov"
)

// Plan is an immutable compositing plan.
type Plan struct {
	ops          []Op
	inputs       []Input
	intervals    []Interval
	slots        []timeline.ReconciledSlot
	terminal     string
	frame        Frame
	baseDuration time.Duration
	basePath     string
}

// Build validates slots against opts and emits the plan. Slots must be in
// ascending start order, as produced from a WindowSet. Every offending slot
// is named in the returned error.
func Build(slots []timeline.ReconciledSlot, opts Options) (*Plan, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, services.Errorf(services.KindPlan, stageName, "build", "no slots to composite")
	}
	if err := validateSlots(slots, opts.BaseDuration); err != nil {
		return nil, err
	}

	p := &Plan{
		slots:        slices.Clone(slots),
		frame:        opts.Frame,
		baseDuration: opts.BaseDuration,
		basePath:     opts.BasePath,
	}
	p.inputs = append(p.inputs, Input{Index: 0, Path: opts.BasePath})
	p.ops = append(p.ops, Op{
		Kind:    OpNormalize,
		Input:   0,
		Sources: []string{baseVideo},
		Output:  baseOutput,
		Frame:   opts.Frame,
	})

	previous := baseOutput
	for i, slot := range slots {
		index := i + 1
		start := slot.Window.Start
		end := slot.End()
		normalized := fmt.Sprintf("%s%d", assetPrefix, index)
		chained := fmt.Sprintf("%s%d", chainPrefix, index)

		p.inputs = append(p.inputs, Input{
			Index:      index,
			Path:       slot.Asset.Path,
			Label:      slot.Window.Label,
			Identifier: slot.Asset.Identifier,
		})
		p.ops = append(p.ops,
			Op{
				Kind:       OpNormalize,
				Label:      slot.Window.Label,
				Identifier: slot.Asset.Identifier,
				Input:      index,
				Sources:    []string{fmt.Sprintf("%d:v", index)},
				Output:     normalized,
				Start:      start,
				End:        end,
				Duration:   slot.ResolvedDuration,
				Frame:      opts.Frame,
			},
			Op{
				Kind:       OpOverlay,
				Label:      slot.Window.Label,
				Identifier: slot.Asset.Identifier,
				Input:      index,
				Sources:    []string{previous, normalized},
				Output:     chained,
				Start:      start,
				End:        end,
				Duration:   slot.ResolvedDuration,
			},
		)
		p.intervals = append(p.intervals, Interval{Label: slot.Window.Label, Start: start, End: end})
		previous = chained
	}
	p.terminal = previous
	p.ops = append(p.ops, Op{
		Kind:    OpAudioPassthrough,
		Input:   0,
		Sources: []string{baseAudio},
		Output:  baseAudio,
	})
	return p, nil
}

func validateOptions(opts Options) error {
	var problems []string
	if strings.TrimSpace(opts.BasePath) == "" {
		problems = append(problems, "base path is empty")
	}
	if !opts.Frame.Valid() {
		problems = append(problems, fmt.Sprintf("frame %s must have positive even dimensions", opts.Frame))
	}
	if opts.BaseDuration <= 0 {
		problems = append(problems, fmt.Sprintf("base duration %s is not positive", opts.BaseDuration))
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Errorf(services.KindPlan, stageName, "options", "%s", strings.Join(problems, "; "))
}

func validateSlots(slots []timeline.ReconciledSlot, baseDuration time.Duration) error {
	var (
		labels   []string
		ids      []string
		problems []string
	)
	flag := func(slot timeline.ReconciledSlot, format string, args ...any) {
		labels = append(labels, slot.Window.Label)
		ids = append(ids, slot.Asset.Identifier)
		problems = append(problems, fmt.Sprintf("%s: ", slot.Window.Label)+fmt.Sprintf(format, args...))
	}

	for i, slot := range slots {
		if strings.TrimSpace(slot.Asset.Path) == "" {
			flag(slot, "asset path is empty")
		}
		if slot.ResolvedDuration <= 0 {
			flag(slot, "resolved duration %s is not positive", slot.ResolvedDuration)
			continue
		}
		if slot.ResolvedDuration > slot.Window.Duration() {
			flag(slot, "resolved duration %s exceeds window %s", slot.ResolvedDuration, slot.Window.Duration())
		}
		start, end := slot.Window.Start, slot.End()
		if start < 0 || end > baseDuration {
			flag(slot, "interval [%s, %s) outside [0, %s]",
				timeline.FormatTimestamp(start), timeline.FormatTimestamp(end), timeline.FormatTimestamp(baseDuration))
		}
		if i == 0 {
			continue
		}
		prev := slots[i-1]
		switch {
		case start < prev.Window.Start:
			flag(slot, "starts before preceding slot %s", prev.Window.Label)
		case prev.ResolvedDuration > 0 && start < prev.End():
			flag(slot, "overlaps preceding slot %s", prev.Window.Label)
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Errorf(services.KindPlan, stageName, "build", "%s", strings.Join(problems, "; ")).
		WithLabels(labels...).WithIdentifiers(ids...)
}

// Ops returns the ordered operation list.
func (p *Plan) Ops() []Op {
	out := make([]Op, len(p.ops))
	for i, op := range p.ops {
		op.Sources = slices.Clone(op.Sources)
		out[i] = op
	}
	return out
}

// Inputs returns the executor inputs in argument order.
func (p *Plan) Inputs() []Input { return slices.Clone(p.inputs) }

// Intervals returns the overlay intervals in start order.
func (p *Plan) Intervals() []Interval { return slices.Clone(p.intervals) }

// Slots returns the reconciled slots the plan was built from.
func (p *Plan) Slots() []timeline.ReconciledSlot { return slices.Clone(p.slots) }

// Terminal is the pad label of the final video stream.
func (p *Plan) Terminal() string { return p.terminal }

// Frame is the canonical output frame.
func (p *Plan) Frame() Frame { return p.frame }

// BasePath is the base media file.
func (p *Plan) BasePath() string { return p.basePath }

// BaseDuration is the length of the base timeline.
func (p *Plan) BaseDuration() time.Duration { return p.baseDuration }

// Request renders the executor contract.
func (p *Plan) Request() Request {
	segments := make([]Segment, 0, len(p.slots))
	for _, slot := range p.slots {
		segments = append(segments, Segment{
			Label:      slot.Window.Label,
			Identifier: slot.Asset.Identifier,
			Path:       slot.Asset.Path,
			Start:      slot.Window.Start,
			End:        slot.End(),
		})
	}
	return Request{BasePath: p.basePath, Segments: segments, Frame: p.frame}
}
