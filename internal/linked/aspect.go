package linked

import (
	"math"

	"github.com/dshills/stormdrain/internal/bounds"
)

// ReconcileAspect widens x or y, about its center, so that
// y.Span()/x.Span() equals aspect. Only one extent ever grows: the one
// that is too small. Unset ranges are returned unchanged.
func ReconcileAspect(x, y bounds.Range, aspect float64) (bounds.Range, bounds.Range, error) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return x, y, ErrInvalidAspect
	}
	if !x.IsSet() || !y.IsSet() {
		return x, y, nil
	}

	dx, dy := x.Span(), y.Span()
	if dy/dx > aspect {
		goal := dy / aspect
		x = x.Grow(0.5 * (goal - dx))
	} else {
		goal := aspect * dx
		y = y.Grow(0.5 * (goal - dy))
	}
	return x, y, nil
}
