package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrMatch      = errors.New("match error")
	ErrProbe      = errors.New("probe error")
	ErrPlan       = errors.New("plan error")
	ErrExecutor   = errors.New("executor error")
	ErrTimeout    = errors.New("timeout")
)

// Kind classifies a pipeline failure. Each kind maps to exactly one marker
// error and one result code.
type Kind string

const (
	KindValidation Kind = "validation"
	KindMatch      Kind = "match"
	KindProbe      Kind = "probe"
	KindPlan       Kind = "plan"
	KindExecutor   Kind = "executor"
)

func (k Kind) marker() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindMatch:
		return ErrMatch
	case KindProbe:
		return ErrProbe
	case KindPlan:
		return ErrPlan
	case KindExecutor:
		return ErrExecutor
	default:
		return nil
	}
}

// Error is the structured failure returned by every pipeline stage. Labels
// and Identifiers name the windows and assets an operator has to fix
// upstream.
type Error struct {
	Kind        Kind
	Stage       string
	Operation   string
	Message     string
	Labels      []string
	Identifiers []string
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if marker := e.Kind.marker(); marker != nil {
		b.WriteString(marker.Error())
	} else {
		b.WriteString("pipeline error")
	}
	b.WriteString(": ")
	b.WriteString(buildDetail(e.Stage, e.Operation, e.Message))
	if len(e.Labels) > 0 {
		b.WriteString(" [labels: ")
		b.WriteString(strings.Join(e.Labels, ", "))
		b.WriteByte(']')
	}
	if len(e.Identifiers) > 0 {
		b.WriteString(" [assets: ")
		b.WriteString(strings.Join(e.Identifiers, ", "))
		b.WriteByte(']')
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is the marker for this error's kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	marker := e.Kind.marker()
	return marker != nil && target == marker
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Wrap builds a structured error for the given kind. The message is
// prefixed with stage and operation context.
func Wrap(kind Kind, stage, operation, message string, err error) *Error {
	return &Error{
		Kind:      kind,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Err:       err,
	}
}

// WithLabels attaches offending window labels and returns the receiver.
func (e *Error) WithLabels(labels ...string) *Error {
	e.Labels = appendUnique(e.Labels, labels...)
	return e
}

// WithIdentifiers attaches offending asset identifiers and returns the receiver.
func (e *Error) WithIdentifiers(ids ...string) *Error {
	e.Identifiers = appendUnique(e.Identifiers, ids...)
	return e
}

// AsError extracts the structured error from err, if any.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

// IsTimeout reports whether err was caused by an expired deadline or carries
// the timeout marker.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

func appendUnique(dst []string, values ...string) []string {
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		dup := false
		for _, existing := range dst {
			if existing == value {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, value)
		}
	}
	return dst
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

// Errorf is shorthand for Wrap with a formatted message and no cause.
func Errorf(kind Kind, stage, operation, format string, args ...any) *Error {
	return Wrap(kind, stage, operation, fmt.Sprintf(format, args...), nil)
}
