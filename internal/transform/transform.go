// Package transform converts ranges between coordinates for use with
// pipeline.WithTransform.
//
// A Func maps a range on a bound's coordinate to the equivalent range on
// a batch field, e.g. kilometres in the view to metres in the data.
// Builtin affine transforms cover unit changes; Lua transforms cover
// anything else without recompiling.
//
// Every Func maps the unset range to the unset range, so an unconstrained
// bound stays unconstrained after conversion.
package transform

import (
	"errors"

	"github.com/dshills/stormdrain/internal/bounds"
)

// Sentinel errors.
var (
	// ErrNoTransformFunc is returned when a Lua script does not define the
	// transform function.
	ErrNoTransformFunc = errors.New("script does not define function " + LuaFuncName)

	// ErrBadResult is returned when a Lua transform does not return two
	// numbers.
	ErrBadResult = errors.New("transform must return two numbers")

	// ErrClosed is returned when calling a closed Lua transform.
	ErrClosed = errors.New("transform is closed")
)

// Func converts a range.
type Func func(bounds.Range) (bounds.Range, error)

// Identity returns its input.
func Identity() Func {
	return func(r bounds.Range) (bounds.Range, error) {
		return r, nil
	}
}

// Affine maps each end v to v*scale + offset. A negative scale swaps the
// ends so the result is still ordered.
func Affine(scale, offset float64) Func {
	return func(r bounds.Range) (bounds.Range, error) {
		if !r.IsSet() {
			return r, nil
		}
		lo, hi := r.Min*scale+offset, r.Max*scale+offset
		if scale < 0 {
			lo, hi = hi, lo
		}
		return bounds.NewRange(lo, hi), nil
	}
}

// Scale multiplies both ends by k.
func Scale(k float64) Func {
	return Affine(k, 0)
}

// Offset adds d to both ends.
func Offset(d float64) Func {
	return Affine(1, d)
}

// Chain applies fs in order.
func Chain(fs ...Func) Func {
	return func(r bounds.Range) (bounds.Range, error) {
		var err error
		for _, f := range fs {
			if r, err = f(r); err != nil {
				return bounds.Range{}, err
			}
		}
		return r, nil
	}
}
