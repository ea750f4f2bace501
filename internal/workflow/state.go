package workflow

import (
	"fmt"

	"inlay/internal/ledger"
)

// stateMachine tracks the in-memory run state. It accepts only the forward
// transitions the ledger allows.
type stateMachine struct {
	state ledger.Status
}

func newStateMachine() *stateMachine {
	return &stateMachine{state: ledger.StatusLoaded}
}

func (m *stateMachine) Current() ledger.Status {
	return m.state
}

func (m *stateMachine) Advance(next ledger.Status) error {
	if !ledger.CanTransition(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", ledger.ErrInvalidTransition, m.state, next)
	}
	m.state = next
	return nil
}
