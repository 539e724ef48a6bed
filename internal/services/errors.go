package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds. Every error returned by a service either wraps one of these
// or is an unexpected storage failure.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error carries a client facing message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

func notFound(entity string) error {
	return newError(ErrNotFound, "%s not found", entity)
}

func forbidden(format string, args ...any) error {
	return newError(ErrForbidden, format, args...)
}

// lookupErr turns gorm.ErrRecordNotFound into a not-found error for entity
// and wraps anything else.
func lookupErr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity)
	}
	return fmt.Errorf("failed to load %s: %w", entity, err)
}
