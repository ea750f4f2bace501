package workflow

import (
	"errors"
	"testing"

	"inlay/internal/ledger"
)

func TestStateMachineIsOneWay(t *testing.T) {
	m := newStateMachine()
	for _, next := range []ledger.Status{ledger.StatusMatched, ledger.StatusReconciled} {
		if err := m.Advance(next); err != nil {
			t.Fatalf("Advance(%s): %v", next, err)
		}
	}
	if err := m.Advance(ledger.StatusMatched); !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Fatalf("expected backwards move to fail, got %v", err)
	}
	if err := m.Advance(ledger.StatusExecuted); !errors.Is(err, ledger.ErrInvalidTransition) {
		t.Fatalf("expected skipped stage to fail, got %v", err)
	}
	if err := m.Advance(ledger.StatusFailed); err != nil {
		t.Fatalf("Advance(failed): %v", err)
	}
	if err := m.Advance(ledger.StatusPlanned); err == nil {
		t.Fatal("failed must be terminal")
	}
	if got := m.Current(); got != ledger.StatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
}
