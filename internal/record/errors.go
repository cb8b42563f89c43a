package record

import (
	"errors"
	"fmt"
)

// Sentinel errors for batch operations.
var (
	// ErrFieldNotFound is returned when a named field is not in the schema.
	ErrFieldNotFound = errors.New("field not found")

	// ErrFieldExists is returned when adding a field that already exists.
	ErrFieldExists = errors.New("field already exists")

	// ErrEmptyFieldName is returned for a field with no name.
	ErrEmptyFieldName = errors.New("field name is empty")

	// ErrKindMismatch is returned when a value does not match a field kind.
	ErrKindMismatch = errors.New("kind mismatch")

	// ErrLengthMismatch is returned when a column has the wrong row count.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrNotNumeric is returned when a numeric view of a string field is
	// requested.
	ErrNotNumeric = errors.New("field is not numeric")
)

// FieldError attaches a field name to an error.
type FieldError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(name string, err error) error {
	return &FieldError{Field: name, Err: err}
}
