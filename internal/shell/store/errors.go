// Package store provides persistence for portal microfrontends and feature flags.
package store

import (
	"errors"
	"strings"
)

// Callers branch on these with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateName   = errors.New("microfrontend name already exists")
	ErrVersionConflict = errors.New("version conflict")
	ErrInvalidFlag     = errors.New("invalid feature flag")

	// ErrUnavailable covers connection, migration and transaction failures.
	ErrUnavailable = errors.New("database unavailable")
)

// StoreError records the operation and record a failure belongs to.
type StoreError struct {
	Op      string
	Entity  string // "microfrontend" or "feature_flag"
	ID      string // record ID, name or flag key
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	subject := strings.TrimSpace(e.Entity + " " + e.ID)
	if subject == "" {
		return e.Op + ": " + e.Message
	}
	return e.Op + " " + subject + ": " + e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, entity, id, message string, err error) *StoreError {
	return &StoreError{Op: op, Entity: entity, ID: id, Message: message, Err: err}
}
