package ir

import (
	"errors"
	"fmt"
)

// Code categorizes diary errors.
type Code string

const (
	// CodeAlreadyInitialized rejects a second Initialize.
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"

	// CodeNotInitialized rejects entry commands before Initialize.
	CodeNotInitialized Code = "NOT_INITIALIZED"

	// CodeInvalidSecret rejects a secret whose digest does not match.
	CodeInvalidSecret Code = "INVALID_SECRET"

	// CodeNotOwner rejects a caller other than the owner.
	CodeNotOwner Code = "NOT_OWNER"

	// CodeEntryNotFound rejects an update of a missing entry.
	CodeEntryNotFound Code = "ENTRY_NOT_FOUND"

	// CodeInvalidArgument rejects malformed query parameters.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeShapeValidationFailed rejects a mutation request at the front end.
	CodeShapeValidationFailed Code = "SHAPE_VALIDATION_FAILED"
)

// Error is the diary error type. Errors are terminal for the command or
// query that raised them.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// Sentinel errors for errors.Is. Matching is by code only.
var (
	ErrAlreadyInitialized    = &Error{Code: CodeAlreadyInitialized, Message: "diary already initialized"}
	ErrNotInitialized        = &Error{Code: CodeNotInitialized, Message: "diary not initialized"}
	ErrInvalidSecret         = &Error{Code: CodeInvalidSecret, Message: "invalid secret phrase"}
	ErrNotOwner              = &Error{Code: CodeNotOwner, Message: "caller is not the owner"}
	ErrEntryNotFound         = &Error{Code: CodeEntryNotFound, Message: "entry not found"}
	ErrInvalidArgument       = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrShapeValidationFailed = &Error{Code: CodeShapeValidationFailed, Message: "shape validation failed"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates an Error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a copy of e with one more detail attached.
func (e *Error) WithDetail(key, value string) *Error {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Code: e.Code, Message: e.Message, Details: details}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
