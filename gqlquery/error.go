package gqlquery

import "errors"

// Error code constants for categorizing errors.
const (
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrNotFound        = "NOT_FOUND"
	ErrUpstream        = "UPSTREAM_ERROR"
	ErrMethodNotFound  = "METHOD_NOT_FOUND"
	ErrConfiguration   = "CONFIGURATION_ERROR"
	ErrInternal        = "INTERNAL_ERROR"
)

// Error represents a structured error with a code, message, and optional details.
// It is JSON-serializable for use in tool responses.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	// Err is the underlying cause, if any. Never serialized.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or
// ErrInternal when err carries no code. A nil error has no code.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

func invalidArgument(msg string, details map[string]any) *Error {
	return &Error{Code: ErrInvalidArgument, Message: msg, Details: details}
}
