package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-grammar input. Always recoverable:
// the caller re-prompts in the same state and leaves the draft untouched.
type ValidationError struct {
	Message string
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports an absent referenced entity.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a NotFoundError for the given resource and identifier.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ForbiddenError reports an ownership or role mismatch. The message must not
// reveal more about the record than "not found or not yours".
type ForbiddenError struct {
	Message string
}

// NewForbiddenError creates a ForbiddenError with the given message.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// AlreadyInStateError reports an idempotent no-op, such as cancelling an
// already-cancelled reservation. Callers treat it as informational success.
type AlreadyInStateError struct {
	State string
}

// NewAlreadyInStateError creates an AlreadyInStateError for the given state.
func NewAlreadyInStateError(state string) *AlreadyInStateError {
	return &AlreadyInStateError{State: state}
}

func (e *AlreadyInStateError) Error() string {
	return fmt.Sprintf("already %s", e.State)
}

// ConflictError reports a write rejected by a concurrent modification.
type ConflictError struct {
	Message string
}

// NewConflictError creates a ConflictError with the given message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string {
	return e.Message
}

// PersistenceError wraps a repository failure. The caller preserves the
// in-flight draft or session so the user may retry.
type PersistenceError struct {
	Err error
}

// NewPersistenceError wraps err as a PersistenceError.
func NewPersistenceError(err error) *PersistenceError {
	return &PersistenceError{Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsForbidden reports whether err is a ForbiddenError.
func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

// IsAlreadyInState reports whether err is an AlreadyInStateError.
func IsAlreadyInState(err error) bool {
	var target *AlreadyInStateError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
