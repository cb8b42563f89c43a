package linked

import "errors"

// Sentinel errors for linked panels.
var (
	// ErrViewExists is returned when adding a view twice.
	ErrViewExists = errors.New("view already registered")

	// ErrViewNotFound is returned for operations on an unregistered view.
	ErrViewNotFound = errors.New("view not registered")

	// ErrInvalidView is returned for nil or non-comparable views.
	ErrInvalidView = errors.New("view must be a non-nil comparable value")

	// ErrEmptyCoordinate is returned when a view is added without a
	// coordinate name.
	ErrEmptyCoordinate = errors.New("coordinate name is empty")

	// ErrInvalidAspect is returned when an aspect-locked view reports a
	// physical aspect ratio that is not a positive finite number.
	ErrInvalidAspect = errors.New("aspect ratio must be positive and finite")

	// ErrAlreadyStarted is returned by Start when Panels is already
	// listening for interactions.
	ErrAlreadyStarted = errors.New("panels already started")
)
