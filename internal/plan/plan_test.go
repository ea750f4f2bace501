package plan_test

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"inlay/internal/plan"
	"inlay/internal/services"
	"inlay/internal/timeline"
)

func reconciled(label string, start, end, resolved time.Duration) timeline.ReconciledSlot {
	id := "01_" + label + ".mp4"
	return timeline.ReconciledSlot{
		MatchedSlot: timeline.MatchedSlot{
			Window: timeline.TimeWindow{Label: label, Start: start, End: end},
			Asset:  timeline.Asset{Identifier: id, Path: "/clips/" + id},
		},
		ResolvedDuration: resolved,
		TrimNeeded:       resolved < end-start,
	}
}

func trimmedAndShortSlots() []timeline.ReconciledSlot {
	return []timeline.ReconciledSlot{
		reconciled("a", 0, 10*time.Second, 10*time.Second),
		reconciled("b", 20*time.Second, 30*time.Second, 8*time.Second),
	}
}

func defaultOptions() plan.Options {
	return plan.Options{Frame: plan.DefaultFrame, BaseDuration: time.Minute, BasePath: "/media/base.mp4"}
}

func TestBuildTrimmedAndShortSlots(t *testing.T) {
	p, err := plan.Build(trimmedAndShortSlots(), defaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	fit := "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2,setsar=1"
	want := strings.Join([]string{
		"[0:v]" + fit + "[base]",
		"[1:v]trim=duration=10,setpts=PTS-STARTPTS+0/TB," + fit + "[v1]",
		"[base][v1]overlay=0:0:enable='gte(t,0)*lt(t,10)':eof_action=pass[ov1]",
		"[2:v]trim=duration=8,setpts=PTS-STARTPTS+20/TB," + fit + "[v2]",
		"[ov1][v2]overlay=0:0:enable='gte(t,20)*lt(t,28)':eof_action=pass[ov2]",
	}, ";")
	if diff := cmp.Diff(want, p.FilterGraph()); diff != "" {
		t.Fatalf("filter graph mismatch (-want +got):\n%s", diff)
	}
	if p.Terminal() != "ov2" {
		t.Fatalf("unexpected terminal %q", p.Terminal())
	}

	wantIntervals := []plan.Interval{
		{Label: "a", Start: 0, End: 10 * time.Second},
		{Label: "b", Start: 20 * time.Second, End: 28 * time.Second},
	}
	if diff := cmp.Diff(wantIntervals, p.Intervals()); diff != "" {
		t.Fatalf("intervals mismatch (-want +got):\n%s", diff)
	}

	wantInputs := []plan.Input{
		{Index: 0, Path: "/media/base.mp4"},
		{Index: 1, Path: "/clips/01_a.mp4", Label: "a", Identifier: "01_a.mp4"},
		{Index: 2, Path: "/clips/01_b.mp4", Label: "b", Identifier: "01_b.mp4"},
	}
	if diff := cmp.Diff(wantInputs, p.Inputs()); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestOpsFormLinearChain(t *testing.T) {
	p, err := plan.Build(trimmedAndShortSlots(), defaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ops := p.Ops()
	var kinds []plan.OpKind
	for _, op := range ops {
		kinds = append(kinds, op.Kind)
	}
	wantKinds := []plan.OpKind{
		plan.OpNormalize,
		plan.OpNormalize, plan.OpOverlay,
		plan.OpNormalize, plan.OpOverlay,
		plan.OpAudioPassthrough,
	}
	if !slices.Equal(kinds, wantKinds) {
		t.Fatalf("unexpected op kinds %v", kinds)
	}

	// Every stream is produced before it is consumed and consumed at most once.
	produced := map[string]bool{"0:v": true, "1:v": true, "2:v": true, "0:a?": true}
	consumed := map[string]int{}
	for _, op := range ops {
		for _, src := range op.Sources {
			if !produced[src] {
				t.Fatalf("op %s consumes %s before it exists", op.Kind, src)
			}
			consumed[src]++
			if consumed[src] > 1 {
				t.Fatalf("stream %s consumed twice", src)
			}
		}
		produced[op.Output] = true
	}
	if consumed[p.Terminal()] != 0 {
		t.Fatal("terminal stream must not be consumed")
	}

	last := ops[len(ops)-1]
	if last.Sources[0] != "0:a?" {
		t.Fatalf("audio must come from the base input, got %v", last.Sources)
	}
	ops[1].Sources[0] = "mutated"
	if p.Ops()[1].Sources[0] == "mutated" {
		t.Fatal("Ops must return a copy")
	}
}

func TestIntervalsAreMonotonicAndDisjoint(t *testing.T) {
	var slots []timeline.ReconciledSlot
	for i := range 12 {
		start := time.Duration(i) * 7 * time.Second
		window := 5 * time.Second
		resolved := window - time.Duration(i%3)*time.Second
		slots = append(slots, reconciled(string(rune('a'+i)), start, start+window, resolved))
	}
	p, err := plan.Build(slots, plan.Options{Frame: plan.Frame{Width: 1280, Height: 720}, BaseDuration: 2 * time.Minute, BasePath: "base.mkv"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	intervals := p.Intervals()
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Start < intervals[i-1].End || intervals[i].Start <= intervals[i-1].Start {
			t.Fatalf("intervals %v and %v are not ordered and disjoint", intervals[i-1], intervals[i])
		}
	}
}

func TestRequest(t *testing.T) {
	p, err := plan.Build(trimmedAndShortSlots(), defaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := plan.Request{
		BasePath: "/media/base.mp4",
		Frame:    plan.DefaultFrame,
		Segments: []plan.Segment{
			{Label: "a", Identifier: "01_a.mp4", Path: "/clips/01_a.mp4", Start: 0, End: 10 * time.Second},
			{Label: "b", Identifier: "01_b.mp4", Path: "/clips/01_b.mp4", Start: 20 * time.Second, End: 28 * time.Second},
		},
	}
	if diff := cmp.Diff(want, p.Request()); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRejectsInvalidSlots(t *testing.T) {
	cases := map[string]struct {
		slots  []timeline.ReconciledSlot
		labels []string
	}{
		"zero resolved": {
			slots:  []timeline.ReconciledSlot{reconciled("a", 0, 10*time.Second, 0)},
			labels: []string{"a"},
		},
		"past base end": {
			slots:  []timeline.ReconciledSlot{reconciled("late", 55*time.Second, 70*time.Second, 10*time.Second)},
			labels: []string{"late"},
		},
		"overlap": {
			slots: []timeline.ReconciledSlot{
				reconciled("x", 0, 10*time.Second, 10*time.Second),
				reconciled("y", 5*time.Second, 15*time.Second, 10*time.Second),
			},
			labels: []string{"y"},
		},
		"unordered": {
			slots: []timeline.ReconciledSlot{
				reconciled("second", 20*time.Second, 30*time.Second, 10*time.Second),
				reconciled("first", 0, 10*time.Second, 10*time.Second),
			},
			labels: []string{"first"},
		},
		"longer than window": {
			slots:  []timeline.ReconciledSlot{reconciled("a", 0, 10*time.Second, 12*time.Second)},
			labels: []string{"a"},
		},
	}
	for name, tc := range cases {
		_, err := plan.Build(tc.slots, defaultOptions())
		if !errors.Is(err, services.ErrPlan) {
			t.Fatalf("%s: expected plan error, got %v", name, err)
		}
		verr, _ := services.AsError(err)
		for _, label := range tc.labels {
			if !slices.Contains(verr.Labels, label) {
				t.Fatalf("%s: expected label %q in %v", name, label, verr.Labels)
			}
		}
	}
}

func TestBuildRejectsInvalidOptions(t *testing.T) {
	cases := map[string]plan.Options{
		"odd frame":     {Frame: plan.Frame{Width: 1919, Height: 1080}, BaseDuration: time.Minute, BasePath: "b.mp4"},
		"zero frame":    {BaseDuration: time.Minute, BasePath: "b.mp4"},
		"no base":       {Frame: plan.DefaultFrame, BaseDuration: time.Minute},
		"zero duration": {Frame: plan.DefaultFrame, BasePath: "b.mp4"},
	}
	for name, opts := range cases {
		if _, err := plan.Build(trimmedAndShortSlots(), opts); !errors.Is(err, services.ErrPlan) {
			t.Fatalf("%s: expected plan error, got %v", name, err)
		}
	}
	if _, err := plan.Build(nil, defaultOptions()); !errors.Is(err, services.ErrPlan) {
		t.Fatalf("expected plan error for empty slots, got %v", err)
	}
}

func TestFractionalTimesRenderAsSeconds(t *testing.T) {
	slots := []timeline.ReconciledSlot{
		reconciled("a", 1500*time.Millisecond, 4*time.Second, 2250*time.Millisecond),
	}
	p, err := plan.Build(slots, defaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	graph := p.FilterGraph()
	for _, fragment := range []string{"trim=duration=2.25", "setpts=PTS-STARTPTS+1.5/TB", "enable='gte(t,1.5)*lt(t,3.75)'"} {
		if !strings.Contains(graph, fragment) {
			t.Fatalf("expected %q in %s", fragment, graph)
		}
	}
}
