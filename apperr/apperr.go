// Package apperr defines the error kinds surfaced at the API boundary.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad input: empty uploads, missing fields, malformed ids.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an absent or soft-deleted record.
	ErrNotFound = errors.New("record not found")
	// ErrStorage marks a failed disk read, write or delete.
	ErrStorage = errors.New("storage failure")
)

// Error pairs a kind with a human readable message.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Kind != nil:
		return e.Kind.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Validation builds an ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds an ErrNotFound naming the missing entity.
func NotFound(entity string, id uint64) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

// Storage wraps an I/O failure with a message.
func Storage(message string, err error) error {
	return &Error{Kind: ErrStorage, Message: message, Err: err}
}
