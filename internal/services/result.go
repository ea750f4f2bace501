package services

import (
	"context"
	"errors"
)

// ResultCode tells callers why a run ended so they can branch on cause.
type ResultCode string

const (
	ResultSuccess               ResultCode = "success"
	ResultPartialInputError     ResultCode = "partial_input_error"
	ResultMatchFailure          ResultCode = "match_failure"
	ResultReconciliationFailure ResultCode = "reconciliation_failure"
	ResultPlanFailure           ResultCode = "plan_failure"
	ResultExecutorFailure       ResultCode = "executor_failure"
	ResultCanceled              ResultCode = "canceled"
)

// ResultCodeFor maps a run error to its result code. A nil error is success.
// A parent context that is canceled or past its deadline reports canceled;
// stage timeouts arrive wrapped in their stage's kind. Other unclassified
// errors are reported as executor failures because they can only come from
// outside the deterministic core.
func ResultCodeFor(err error) ResultCode {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, ErrValidation):
		return ResultPartialInputError
	case errors.Is(err, ErrMatch):
		return ResultMatchFailure
	case errors.Is(err, ErrProbe):
		return ResultReconciliationFailure
	case errors.Is(err, ErrPlan):
		return ResultPlanFailure
	case errors.Is(err, ErrExecutor):
		return ResultExecutorFailure
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultExecutorFailure
	}
}

// ExitCode returns the process exit status the CLI uses for the code.
func (c ResultCode) ExitCode() int {
	switch c {
	case ResultSuccess:
		return 0
	case ResultPartialInputError:
		return 2
	case ResultMatchFailure:
		return 3
	case ResultReconciliationFailure:
		return 4
	case ResultPlanFailure:
		return 5
	case ResultExecutorFailure:
		return 6
	case ResultCanceled:
		return 130
	default:
		return 1
	}
}
