package infer

import (
	"fmt"

	"github.com/simon-lentz/anf/diag"
)

// Error is a fatal inference failure carrying a stable diagnostic code.
//
// Inference errors abort the current query chain and propagate; the
// engine does not retry.
type Error struct {
	Code    diag.Code
	Message string
}

// Error implements error.
func (e *Error) Error() string {
	return fmt.Sprintf("infer: %s: %s", e.Code, e.Message)
}

// Issue renders the error as a diagnostic issue.
func (e *Error) Issue() diag.Issue {
	return diag.NewIssue(diag.Error, e.Code, e.Message).Build()
}

func errShapeMismatch(format string, args ...any) *Error {
	return &Error{Code: diag.E_SHAPE_MISMATCH, Message: fmt.Sprintf(format, args...)}
}

func errUnsatisfiable(format string, args ...any) *Error {
	return &Error{Code: diag.E_UNSATISFIABLE, Message: fmt.Sprintf(format, args...)}
}

func errTimeout(steps int) *Error {
	return &Error{
		Code:    diag.E_INFERENCE_TIMEOUT,
		Message: fmt.Sprintf("step budget of %d exhausted; inference does not converge", steps),
	}
}

func errInvalidCondition(v any) *Error {
	return &Error{
		Code:    diag.E_INVALID_CONDITION,
		Message: fmt.Sprintf("if_ condition must be a boolean or ANYTHING, got %T", v),
	}
}
