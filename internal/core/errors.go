package core

import (
	"errors"
	"fmt"
)

// ValidationKind names the rule a payload broke.
type ValidationKind int

const (
	KindRejected ValidationKind = iota
	KindIdentifier
	KindTypeMismatch
	KindHearts
	KindUnknownValue
	KindUnreadable
	KindBatchSize
)

// ValidationError reports a payload that was rejected before any write.
type ValidationError struct {
	Kind  ValidationKind
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid payload: " + e.Msg
	}
	return fmt.Sprintf("invalid payload: field `%s` %s", e.Field, e.Msg)
}

// NewValidationError returns a *ValidationError for field with KindRejected.
func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// NewValidationErrorKind returns a *ValidationError of the given kind.
func NewValidationErrorKind(kind ValidationKind, field, msg string) error {
	return &ValidationError{Kind: kind, Field: field, Msg: msg}
}

// NotFoundError reports a missing card or a missing referenced row.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// NotFound returns a *NotFoundError.
func NotFound(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// ConflictError reports a uniqueness violation, or a delete blocked by rows
// that still reference the key.
type ConflictError struct {
	Entity string
	Key    string
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s conflict: %s %s", e.Entity, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s conflict: %s already exists", e.Entity, e.Key)
}

// Conflict returns a *ConflictError for a duplicate key.
func Conflict(entity, key string) error {
	return &ConflictError{Entity: entity, Key: key}
}

// StorageError wraps an opaque persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err unless it already carries a catalog error type.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsValidation(err) || IsNotFound(err) || IsConflict(err) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsConflict reports whether err is a *ConflictError.
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// IsStorage reports whether err is a *StorageError.
func IsStorage(err error) bool {
	var e *StorageError
	return errors.As(err, &e)
}
