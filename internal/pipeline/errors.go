package pipeline

import "errors"

// Sentinel errors for pipeline stages.
var (
	// ErrNoTarget is returned when a stage with no target receives a batch.
	ErrNoTarget = errors.New("stage has no target")

	// ErrNoFieldName is returned when an ItemModifier is built without a
	// field name.
	ErrNoFieldName = errors.New("no field name configured")

	// ErrTargetNotFound is returned when removing a target that is not
	// attached to a Branchpoint.
	ErrTargetNotFound = errors.New("target not found")

	// ErrInvalidCapacity is returned for a cache capacity below one.
	ErrInvalidCapacity = errors.New("cache capacity must be at least 1")
)
