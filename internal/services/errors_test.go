package services_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"inlay/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.KindProbe, "reconcile", "probe", "duration unavailable", base).
		WithLabels("intro").
		WithIdentifiers("01_intro.mp4")
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if errors.Is(err, services.ErrPlan) {
		t.Fatalf("unexpected plan marker match: %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"reconcile", "probe", "duration unavailable", "intro", "01_intro.mp4", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWithLabelsDeduplicates(t *testing.T) {
	err := services.Errorf(services.KindValidation, "windows", "validate", "bad windows").
		WithLabels("a", "b", "a", " ")
	if got := strings.Join(err.Labels, ","); got != "a,b" {
		t.Fatalf("unexpected labels: %q", got)
	}
}

func TestAsErrorThroughWrapping(t *testing.T) {
	inner := services.Errorf(services.KindMatch, "match", "assign", "count mismatch").WithLabels("x")
	outer := fmt.Errorf("run failed: %w", inner)
	got, ok := services.AsError(outer)
	if !ok {
		t.Fatal("expected structured error")
	}
	if got.Kind != services.KindMatch || got.Labels[0] != "x" {
		t.Fatalf("unexpected error: %#v", got)
	}
}

func TestResultCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want services.ResultCode
		exit int
	}{
		{"nil", nil, services.ResultSuccess, 0},
		{"validation", services.Errorf(services.KindValidation, "", "", "x"), services.ResultPartialInputError, 2},
		{"match", services.Errorf(services.KindMatch, "", "", "x"), services.ResultMatchFailure, 3},
		{"probe", services.Errorf(services.KindProbe, "", "", "x"), services.ResultReconciliationFailure, 4},
		{"plan", services.Errorf(services.KindPlan, "", "", "x"), services.ResultPlanFailure, 5},
		{"executor", services.Errorf(services.KindExecutor, "", "", "x"), services.ResultExecutorFailure, 6},
		{"canceled", fmt.Errorf("stage: %w", context.Canceled), services.ResultCanceled, 130},
		{"deadline", context.DeadlineExceeded, services.ResultCanceled, 130},
		{"probe timeout", services.Wrap(services.KindProbe, "reconcile", "probe", "probe exceeded 1s", context.DeadlineExceeded), services.ResultReconciliationFailure, 4},
		{"unclassified", fmt.Errorf("rename: %w", os.ErrPermission), services.ResultExecutorFailure, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := services.ResultCodeFor(tc.err)
			if got != tc.want {
				t.Fatalf("ResultCodeFor = %s, want %s", got, tc.want)
			}
			if got.ExitCode() != tc.exit {
				t.Fatalf("ExitCode = %d, want %d", got.ExitCode(), tc.exit)
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	if !services.IsTimeout(fmt.Errorf("probe: %w", context.DeadlineExceeded)) {
		t.Fatal("expected deadline to count as timeout")
	}
	if services.IsTimeout(errors.New("other")) {
		t.Fatal("unexpected timeout classification")
	}
}
