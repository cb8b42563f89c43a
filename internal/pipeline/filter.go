package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/stormdrain/internal/bounds"
	"github.com/dshills/stormdrain/internal/metrics"
	"github.com/dshills/stormdrain/internal/record"
)

// RangeFunc maps a range expressed in one coordinate to a range in
// another.
type RangeFunc func(bounds.Range) (bounds.Range, error)

// Remap redirects a bound to a different field, converting its range on
// the way.
type Remap struct {
	// Field is the batch field the converted range applies to.
	Field string

	// Func converts the range. A nil Func keeps the range as is.
	Func RangeFunc
}

// BoundsFilter forwards the rows of each batch that lie inside every
// active range of a Bounds.
//
// For each (name, range) in the bounds, in enumeration order:
//   - names outside the RestrictTo list are skipped;
//   - a Remap for the name replaces it with Remap.Field and converts the
//     range with Remap.Func;
//   - names that are not fields of the batch are skipped, so a bound on an
//     absent field never removes rows;
//   - unset ranges are skipped;
//   - otherwise rows with min <= value <= max are kept.
//
// The filter always forwards a new batch, possibly with zero rows.
type BoundsFilter struct {
	Segment

	mu     sync.RWMutex
	bounds *bounds.Bounds

	name       string
	restrictTo map[string]struct{}
	remaps     map[string]Remap
	metrics    *metrics.Metrics
}

// FilterOption configures a BoundsFilter.
type FilterOption func(*BoundsFilter)

// RestrictTo only applies bounds with the given names.
func RestrictTo(names ...string) FilterOption {
	return func(f *BoundsFilter) {
		f.restrictTo = make(map[string]struct{}, len(names))
		for _, n := range names {
			f.restrictTo[n] = struct{}{}
		}
	}
}

// WithTransform applies the bound called name to field instead, after
// converting its range with fn.
func WithTransform(name, field string, fn RangeFunc) FilterOption {
	return func(f *BoundsFilter) {
		if f.remaps == nil {
			f.remaps = make(map[string]Remap)
		}
		f.remaps[name] = Remap{Field: field, Func: fn}
	}
}

// WithStageName sets the label used for row metrics.
func WithStageName(name string) FilterOption {
	return func(f *BoundsFilter) {
		f.name = name
	}
}

// WithFilterMetrics records rows in and out.
func WithFilterMetrics(m *metrics.Metrics) FilterOption {
	return func(f *BoundsFilter) {
		f.metrics = m
	}
}

// NewBoundsFilter creates a filter reading b and forwarding to target.
func NewBoundsFilter(target Target, b *bounds.Bounds, opts ...FilterOption) *BoundsFilter {
	f := &BoundsFilter{
		Segment: Segment{target: target},
		bounds:  b,
		name:    "bounds_filter",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Bounds returns the bounds the filter reads.
func (f *BoundsFilter) Bounds() *bounds.Bounds {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bounds
}

// SetBounds replaces the bounds. The restriction list and transforms are
// kept.
func (f *BoundsFilter) SetBounds(b *bounds.Bounds) {
	f.mu.Lock()
	f.bounds = b
	f.mu.Unlock()
}

// RestrictedTo returns the restriction list, sorted, or nil if every
// bound applies.
func (f *BoundsFilter) RestrictedTo() []string {
	if f.restrictTo == nil {
		return nil
	}
	out := make([]string, 0, len(f.restrictTo))
	for n := range f.restrictTo {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Mask computes the rows of b that pass the current bounds.
func (f *BoundsFilter) Mask(b *record.Batch) (*record.Mask, error) {
	mask := record.AllMask(b.Len())

	bnds := f.Bounds()
	if bnds == nil {
		return mask, nil
	}

	for name, r := range bnds.Limits() {
		if f.restrictTo != nil {
			if _, ok := f.restrictTo[name]; !ok {
				continue
			}
		}

		if remap, ok := f.remaps[name]; ok {
			if remap.Func != nil {
				converted, err := remap.Func(r)
				if err != nil {
					return nil, fmt.Errorf("transform %s -> %s: %w", name, remap.Field, err)
				}
				r = converted
			}
			name = remap.Field
		}

		if !b.Has(name) || !r.IsSet() {
			continue
		}

		inside, err := b.RangeMask(name, r.Min, r.Max)
		if err != nil {
			return nil, err
		}
		mask.And(inside)
	}
	return mask, nil
}

// Send filters b and forwards the surviving rows.
func (f *BoundsFilter) Send(ctx context.Context, b *record.Batch) error {
	mask, err := f.Mask(b)
	if err != nil {
		return err
	}

	out := b.Select(mask)
	f.metrics.RecordRows(f.name, b.Len(), out.Len())
	return f.forward(ctx, out)
}
