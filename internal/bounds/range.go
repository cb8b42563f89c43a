package bounds

import (
	"fmt"
	"math"
)

// Range is a closed numeric interval [Min, Max].
//
// The zero value is the unset range. An unset range places no constraint
// on anything it is compared against. Min > Max is allowed and kept as
// given; callers decide what an inverted range means.
type Range struct {
	Min float64
	Max float64
	set bool
}

// NewRange returns a set range.
func NewRange(lo, hi float64) Range {
	return Range{Min: lo, Max: hi, set: true}
}

// Unset returns the unset range.
func Unset() Range {
	return Range{}
}

// IsSet reports whether both ends of the range are defined.
func (r Range) IsSet() bool {
	return r.set
}

// Span returns Max-Min, or 0 for an unset range.
func (r Range) Span() float64 {
	if !r.set {
		return 0
	}
	return r.Max - r.Min
}

// Center returns the midpoint, or 0 for an unset range.
func (r Range) Center() float64 {
	if !r.set {
		return 0
	}
	return 0.5 * (r.Min + r.Max)
}

// Contains reports whether Min <= v <= Max. An unset range contains
// every value.
func (r Range) Contains(v float64) bool {
	if !r.set {
		return true
	}
	return v >= r.Min && v <= r.Max
}

// Grow widens the range symmetrically by delta on each side.
func (r Range) Grow(delta float64) Range {
	if !r.set {
		return r
	}
	return NewRange(r.Min-delta, r.Max+delta)
}

// Equal reports whether r and o are the same to within tol. Two unset
// ranges are equal; a set and an unset range never are.
func (r Range) Equal(o Range, tol float64) bool {
	if r.set != o.set {
		return false
	}
	if !r.set {
		return true
	}
	return math.Abs(r.Min-o.Min) <= tol && math.Abs(r.Max-o.Max) <= tol
}

// Pair returns the ends of the range and whether it is set.
func (r Range) Pair() (lo, hi float64, ok bool) {
	return r.Min, r.Max, r.set
}

// String formats the range as "(min, max)".
func (r Range) String() string {
	if !r.set {
		return "(unset, unset)"
	}
	return fmt.Sprintf("(%g, %g)", r.Min, r.Max)
}
