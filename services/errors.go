package services

import (
	"errors"
	"fmt"

	"task-manager/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrValidation         = errors.New("validation failed")
	ErrPartialFailure     = errors.New("partial failure")
	ErrInternal           = errors.New("internal error")
)

// PartialFailureError reports a write whose primary step was committed while a
// dependent association step failed.
type PartialFailureError struct {
	Entity string
	ID     primitive.ObjectID
	Step   string
	Err    error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s %s saved but %s failed: %v", e.Entity, e.ID.Hex(), e.Step, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

func (e *PartialFailureError) Is(target error) bool { return target == ErrPartialFailure }

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// fromStore maps store sentinels onto the service taxonomy. Unavailability is
// kept in the chain so callers can tell an outage from a fault.
func fromStore(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict), errors.Is(err, ErrPartialFailure):
		return err
	case errors.Is(err, store.ErrNotFound):
		return notFound(entity)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%s %w", entity, ErrConflict)
	}
	return fmt.Errorf("%w: %s: %w", ErrInternal, entity, err)
}
