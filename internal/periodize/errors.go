package periodize

import (
	"errors"
	"fmt"
)

// Sentinel errors for categorizing engine failures with errors.Is.
var (
	// ErrValidation indicates the input program is malformed.
	ErrValidation = errors.New("invalid program")

	// ErrNotFound indicates a referenced program is absent.
	ErrNotFound = errors.New("program not found")

	// ErrInvariantViolated indicates the engine produced a program that breaks
	// the (week, order) invariants. It always means a bug in the engine.
	ErrInvariantViolated = errors.New("program invariant violated")
)

// ValidationError names the offending field of a malformed program.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid program: %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError reports which program could not be found.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.What)
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
