package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrInUse     = errors.New("still referenced by other records")

	// ErrActiveIntervalConflict is returned when a second open interval
	// would exist for the same flat, spot or vehicle.
	ErrActiveIntervalConflict = errors.New("an active assignment already exists for this resource")

	ErrIntervalEnded   = errors.New("assignment is already ended")
	ErrInvalidInterval = errors.New("end date cannot be before start date")

	// ErrImportConflict aborts a bulk import under the abort conflict policy.
	ErrImportConflict = errors.New("import contains conflicting rows for the same flat")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
