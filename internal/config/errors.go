package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidationFailed is matched by every *ValidationError.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError describes one invalid setting.
type ValidationError struct {
	// Path is the setting path, e.g. "views[1].aspect".
	Path string
	// Message describes the problem.
	Message string
	// Value is the offending value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []*ValidationError

// Error joins the individual messages.
func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (es ValidationErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

func (es *ValidationErrors) add(path, msg string, value any) {
	*es = append(*es, &ValidationError{Path: path, Message: msg, Value: value})
}

func (es ValidationErrors) err() error {
	if len(es) == 0 {
		return nil
	}
	return es
}
