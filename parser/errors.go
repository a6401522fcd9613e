package parser

import (
	"fmt"

	"github.com/simon-lentz/anf/diag"
	"github.com/simon-lentz/anf/location"
)

// Error is a fatal parse failure carrying a stable diagnostic code.
//
// Parse errors abort the parse and surface to the caller of [Parse]; no
// partial graph is returned.
type Error struct {
	Code    diag.Code
	Message string
	Span    location.Span
}

// Error implements error.
func (e *Error) Error() string {
	if e.Span.IsZero() {
		return fmt.Sprintf("parser: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("parser: %s: %s @ %s", e.Code, e.Message, e.Span)
}

// Issue renders the error as a diagnostic issue.
func (e *Error) Issue() diag.Issue {
	return diag.NewIssue(diag.Error, e.Code, e.Message).WithSpan(e.Span).Build()
}

func errNotSupported(what string, span location.Span) *Error {
	return &Error{Code: diag.E_NOT_SUPPORTED, Message: "unsupported construct: " + what, Span: span}
}

func errUnresolved(name string, span location.Span) *Error {
	return &Error{
		Code:    diag.E_UNRESOLVED_NAME,
		Message: fmt.Sprintf("name %q is not defined in any namespace", name),
		Span:    span,
	}
}

func errMultipleComparators(span location.Span) *Error {
	return &Error{
		Code:    diag.E_MULTIPLE_COMPARATORS,
		Message: "chained comparisons are not supported; use a single comparator",
		Span:    span,
	}
}

func errReturnAlreadySet(span location.Span) *Error {
	return &Error{
		Code:    diag.E_RETURN_ALREADY_SET,
		Message: "graph return is already set",
		Span:    span,
	}
}
