package main

import (
	"inlay/internal/services"
)

// exitError carries the process exit status for a failed command. A silent
// error has already been reported (for example as a JSON document) and main
// only needs to exit.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// withExitCode maps err to its result code's exit status.
func withExitCode(err error, silent bool) error {
	if err == nil {
		return nil
	}
	return &exitError{code: services.ResultCodeFor(err).ExitCode(), err: err, silent: silent}
}
