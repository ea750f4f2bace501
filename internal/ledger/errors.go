package ledger

import "errors"

var (
	// ErrNotFound is returned when a run ID is unknown.
	ErrNotFound = errors.New("run not found")
	// ErrInvalidTransition is returned when a status change would move a run
	// backwards, skip a stage, or leave a terminal state.
	ErrInvalidTransition = errors.New("invalid run status transition")
)
