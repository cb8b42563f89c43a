package app

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	// ErrUnknownView indicates a view name that is not configured.
	ErrUnknownView = errors.New("unknown view")

	// ErrNoData indicates an operation that needs loaded data.
	ErrNoData = errors.New("no data loaded")

	// ErrClosed indicates the session was closed.
	ErrClosed = errors.New("session closed")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// OperationError wraps a failed session operation with its target.
type OperationError struct {
	Op     string
	Target string
	Err    error
}

func (e *OperationError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
