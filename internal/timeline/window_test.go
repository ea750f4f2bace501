package timeline_test

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"inlay/internal/services"
	"inlay/internal/timeline"
)

func sec(n int) time.Duration { return time.Duration(n) * time.Second }

func TestNewWindowSetSortsByStart(t *testing.T) {
	set, err := timeline.NewWindowSet([]timeline.TimeWindow{
		{Label: "b", Start: sec(20), End: sec(30)},
		{Label: "a", Start: sec(0), End: sec(10)},
		{Label: "c", Start: sec(30), End: sec(31)},
	}, timeline.WithBaseDuration(sec(60)))
	if err != nil {
		t.Fatalf("NewWindowSet: %v", err)
	}
	if got := set.Labels(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected order: %v", got)
	}
	if set.Position("b") != 2 || set.Position("missing") != 0 {
		t.Fatalf("unexpected positions: b=%d missing=%d", set.Position("b"), set.Position("missing"))
	}
	start, end := set.Span()
	if start != 0 || end != sec(31) {
		t.Fatalf("unexpected span: %v-%v", start, end)
	}
	if bound, ok := set.BaseDuration(); !ok || bound != sec(60) {
		t.Fatalf("unexpected bound: %v %v", bound, ok)
	}
}

func TestWindowSetAllIsRestartable(t *testing.T) {
	set, err := timeline.NewWindowSet([]timeline.TimeWindow{
		{Label: "x", Start: sec(5), End: sec(6)},
		{Label: "y", Start: sec(1), End: sec(2)},
	})
	if err != nil {
		t.Fatalf("NewWindowSet: %v", err)
	}
	for pass := 0; pass < 2; pass++ {
		var labels []string
		for i, w := range set.All() {
			if i != len(labels) {
				t.Fatalf("unexpected index %d", i)
			}
			labels = append(labels, w.Label)
		}
		if !slices.Equal(labels, []string{"y", "x"}) {
			t.Fatalf("pass %d: unexpected labels %v", pass, labels)
		}
	}

	windows := set.Windows()
	windows[0].Label = "mutated"
	if set.Labels()[0] != "y" {
		t.Fatal("Windows must return a copy")
	}
}

func TestAdjacentWindowsAreAllowed(t *testing.T) {
	_, err := timeline.NewWindowSet([]timeline.TimeWindow{
		{Label: "a", Start: sec(0), End: sec(10)},
		{Label: "b", Start: sec(10), End: sec(20)},
	})
	if err != nil {
		t.Fatalf("expected touching windows to be valid: %v", err)
	}
}

func TestZeroLengthWindowRejected(t *testing.T) {
	_, err := timeline.NewWindowSet([]timeline.TimeWindow{
		{Label: "intro", Start: sec(5), End: sec(5)},
	})
	assertValidation(t, err, "intro")
}

func TestOverlappingWindowsRejected(t *testing.T) {
	_, err := timeline.NewWindowSet([]timeline.TimeWindow{
		{Label: "x", Start: sec(0), End: sec(10)},
		{Label: "y", Start: sec(5), End: sec(15)},
	})
	assertValidation(t, err, "x", "y")
}

func TestLongWindowOverlapsEveryLaterWindow(t *testing.T) {
	_, err := timeline.NewWindowSet([]timeline.TimeWindow{
		{Label: "a", Start: sec(0), End: sec(100)},
		{Label: "b", Start: sec(10), End: sec(20)},
		{Label: "c", Start: sec(30), End: sec(40)},
	})
	assertValidation(t, err, "a", "b", "c")
	if !strings.Contains(err.Error(), "c: overlaps a") {
		t.Fatalf("expected c to be reported against a: %v", err)
	}
}

func TestValidationNamesEveryOffender(t *testing.T) {
	_, err := timeline.NewWindowSet([]timeline.TimeWindow{
		{Label: "dup", Start: sec(0), End: sec(1)},
		{Label: "dup", Start: sec(2), End: sec(3)},
		{Label: "backwards", Start: sec(9), End: sec(8)},
		{Label: "late", Start: sec(50), End: sec(70)},
	}, timeline.WithBaseDuration(sec(60)))
	assertValidation(t, err, "dup", "backwards", "late")
}

func TestEmptyWindowSetRejected(t *testing.T) {
	_, err := timeline.NewWindowSet(nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseWindowSetReportsBadTimestampsAndOverlaps(t *testing.T) {
	_, err := timeline.ParseWindowSet([]timeline.WindowSpec{
		{Label: "ok", Start: "00:00", End: "00:10"},
		{Label: "garbled", Start: "zz", End: "00:20"},
		{Label: "clash", Start: "00:05", End: "00:12"},
	})
	assertValidation(t, err, "garbled", "ok", "clash")
}

func TestParseWindowSetTwoWindows(t *testing.T) {
	set, err := timeline.ParseWindowSet([]timeline.WindowSpec{
		{Label: "a", Start: "00:00", End: "00:10"},
		{Label: "b", Start: "00:20", End: "00:30"},
	})
	if err != nil {
		t.Fatalf("ParseWindowSet: %v", err)
	}
	b, ok := set.Lookup("b")
	if !ok || b.Duration() != sec(10) || b.Start != sec(20) {
		t.Fatalf("unexpected window b: %+v", b)
	}
}

func assertValidation(t *testing.T, err error, labels ...string) {
	t.Helper()
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	verr, ok := services.AsError(err)
	if !ok {
		t.Fatalf("expected structured error, got %T", err)
	}
	for _, label := range labels {
		if !slices.Contains(verr.Labels, label) {
			t.Fatalf("expected label %q in %v (%v)", label, verr.Labels, err)
		}
	}
}
