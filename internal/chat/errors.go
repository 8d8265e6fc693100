package chat

import "errors"

// Error codes surfaced at the transport boundary.
const (
	CodeValidation = "validation_error"
	CodeStorage    = "storage_error"
	CodeNotFound   = "not_found"
)

// Error wraps a machine-readable code, the offending field where one can be
// named, and a human-readable message.
type Error struct {
	Code    string
	Field   string
	Message string

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the wrapped cause for storage errors.
func (e *Error) Unwrap() error {
	return e.cause
}

func newValidationError(field, msg string) *Error {
	return &Error{Code: CodeValidation, Field: field, Message: msg}
}

func newStorageError(err error) *Error {
	return &Error{Code: CodeStorage, Message: "storage failure", cause: err}
}

// IsValidation reports whether err is a caller-data error.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeValidation
}

// IsStorage reports whether err is a durable-store fault.
func IsStorage(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == CodeStorage
}
