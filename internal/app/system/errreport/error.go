// Package errreport turns request-time failures into a generic HTTP 500
// and routes the full diagnostic detail to the logger.
package errreport

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Default user-facing name and description for wrapped errors.
const (
	DefaultName        = "Internal Server Error"
	DefaultDescription = "The server encountered an internal error and was unable to complete your request."
)

// Error is a request failure tagged when it is raised. A nil Cause means
// the failure was already handled and reported elsewhere.
type Error struct {
	Name        string // shown to the client
	Description string // shown to the client
	Cause       error  // logged, never shown
	Stack       string // captured at wrap time, logged only
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Name + ": " + e.Description
	}
	return e.Name + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// HasCause reports whether an underlying error is attached.
func (e *Error) HasCause() bool { return e.Cause != nil }

// Wrap tags cause with the default name and description and records the
// current stack. An error that already is (or wraps) an *Error is returned
// as that *Error. Wrap(nil) returns nil.
func Wrap(cause error) *Error {
	return WrapAs(DefaultName, DefaultDescription, cause)
}

// WrapAs is Wrap with a caller-chosen name and description.
func WrapAs(name, description string, cause error) *Error {
	if cause == nil {
		return nil
	}
	var tagged *Error
	if errors.As(cause, &tagged) {
		return tagged
	}
	return &Error{
		Name:        name,
		Description: description,
		Cause:       cause,
		Stack:       string(debug.Stack()),
	}
}

// Handled builds an error with no cause.
func Handled(name, description string) *Error {
	return &Error{Name: name, Description: description}
}

// FromPanic wraps a recovered panic value.
func FromPanic(v any) *Error {
	cause, ok := v.(error)
	if !ok {
		cause = fmt.Errorf("panic: %v", v)
	}
	var tagged *Error
	if errors.As(cause, &tagged) {
		return tagged
	}
	return &Error{
		Name:        DefaultName,
		Description: DefaultDescription,
		Cause:       cause,
		Stack:       string(debug.Stack()),
	}
}
