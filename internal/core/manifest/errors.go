// Package manifest parses microfrontend configuration payloads into manifests.
// This is part of the Functional Core - all functions are pure with no I/O.
package manifest

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input errors
	ErrEmptyPayload   = errors.New("configuration payload is empty")
	ErrInvalidPayload = errors.New("invalid configuration payload")

	// Feature validation errors
	ErrMissingField = errors.New("required field is missing")
	ErrInvalidField = errors.New("invalid field value")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	Field   string // e.g., "features[2].icon"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(field, message string, err error) *ParseError {
	return &ParseError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
