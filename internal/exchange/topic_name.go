package exchange

import (
	"strings"
)

// Name is a hierarchical topic name using dot notation,
// e.g. "bounds.updated".
type Name string

// Reserved topic names.
const (
	// BoundsUpdated carries the *bounds.Bounds instance that changed.
	BoundsUpdated Name = "bounds.updated"

	// ReflowStart asks every dataset to push its data down its pipeline
	// again. Usually follows BoundsUpdated.
	ReflowStart Name = "reflow.start"

	// ReflowDone signals that every ReflowStart subscriber has finished,
	// so consumers can act on fully propagated data (e.g. a final draw).
	ReflowDone Name = "reflow.done"

	// InteractionComplete carries the view whose limits were changed by a
	// user and have settled.
	InteractionComplete Name = "interaction.complete"
)

// Separator separates name segments.
const Separator = "."

// Reserved describes the topics the core publishes or consumes.
var Reserved = map[Name]string{
	BoundsUpdated:       "Bounds instance has been updated",
	ReflowStart:         "Global data reflow, often follows a bounds change",
	ReflowDone:          "Data reflow is complete; follows reflow.start",
	InteractionComplete: "View limits changed by user interaction and settled; payload is the view",
}

// String returns the name as a string.
func (n Name) String() string {
	return string(n)
}

// Segments returns the name split by the separator.
func (n Name) Segments() []string {
	if n == "" {
		return nil
	}
	return strings.Split(string(n), Separator)
}

// Valid reports whether the name is non-empty and has no empty segments.
func (n Name) Valid() bool {
	if n == "" {
		return false
	}
	for _, seg := range n.Segments() {
		if seg == "" || strings.TrimSpace(seg) != seg {
			return false
		}
	}
	return true
}

// IsReserved reports whether the name is one of the core topics.
func (n Name) IsReserved() bool {
	_, ok := Reserved[n]
	return ok
}
