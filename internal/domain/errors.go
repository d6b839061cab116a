package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during ranking operations.
var (
	// ErrInvalidVote indicates that a vote breaks the ranking preconditions.
	ErrInvalidVote = errors.New("invalid vote")

	// ErrInvalidCandidateCount indicates a negative candidate count.
	ErrInvalidCandidateCount = errors.New("invalid candidate count")

	// ErrInvalidState indicates that a State operation received invalid input.
	ErrInvalidState = errors.New("invalid state")

	// ErrKeyNotFound indicates that a requested state key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// InvalidVoteError reports which vote failed validation and why.
// It unwraps to ErrInvalidVote.
type InvalidVoteError struct {
	// Index is the position of the offending vote in the input slice.
	Index int

	// Reason describes the broken precondition.
	Reason string
}

// Error implements the error interface for InvalidVoteError.
func (e *InvalidVoteError) Error() string {
	return fmt.Sprintf("invalid vote at index %d: %s", e.Index, e.Reason)
}

// Unwrap returns ErrInvalidVote.
func (e *InvalidVoteError) Unwrap() error { return ErrInvalidVote }

// NewInvalidVoteError creates an InvalidVoteError for the vote at index.
func NewInvalidVoteError(index int, reason string) *InvalidVoteError {
	return &InvalidVoteError{Index: index, Reason: reason}
}

// StateError represents an error that occurred during State operations.
// It provides context about which key and operation caused the error.
type StateError struct {
	// Key is the state key that was involved in the failed operation.
	Key string

	// Operation describes what operation was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for StateError.
func (e *StateError) Error() string {
	return fmt.Sprintf("state error: operation=%s, key=%s, err=%v", e.Operation, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StateError) Unwrap() error { return e.Err }

// NewStateError creates a new StateError with the given details.
func NewStateError(key, operation string, err error) *StateError {
	return &StateError{
		Key:       key,
		Operation: operation,
		Err:       err,
	}
}

// ValidationError collects several validation failures for one entity.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets callers match any ValidationError with ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
