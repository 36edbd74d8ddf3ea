package repository

import (
	"errors"
	"fmt"

	"github.com/Kerhoff/GroceryboT/internal/models"
)

// Sentinel errors for comparison using errors.Is()
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("item not found")
)

// ValidationError is returned when input is rejected. The list is left
// unchanged.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid creates a ValidationError for the named field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError is returned when an operation addresses an id that is not
// on the list.
type NotFoundError struct {
	ID models.ItemID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find an item with id: %s", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound creates a NotFoundError for id.
func NotFound(id models.ItemID) *NotFoundError {
	return &NotFoundError{ID: id}
}
