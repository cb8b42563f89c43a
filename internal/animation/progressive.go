// Package animation replays the latest filtered batch in growing slices of
// one variable, so a consumer can draw data appearing over time.
//
// A Progressive taps a live Branchpoint with a cache that only records.
// Each Frame narrows the cached batch to
//
//	start <= variable <= start + fraction*(end-start)
//
// and sends the subset to its outlets. No new input is needed between
// frames. Frame timing belongs to the caller:
//
//	p, _ := animation.New(branch, "time", bounds.NewRange(0, 60), drawer)
//	defer p.Close()
//	for f := range animation.Fractions(30) {
//		_ = p.Frame(ctx, f)
//	}
package animation

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/dshills/stormdrain/internal/bounds"
	"github.com/dshills/stormdrain/internal/pipeline"
	"github.com/dshills/stormdrain/internal/record"
)

var (
	// ErrInvalidLimits is returned when the animated range is unset or
	// empty.
	ErrInvalidLimits = errors.New("animation limits must be set and increasing")

	// ErrNoVariable is returned when no variable name is given.
	ErrNoVariable = errors.New("no animation variable")

	// ErrClosed is returned by Frame after Close.
	ErrClosed = errors.New("animation closed")
)

// Progressive is a tap on a Branchpoint that emits growing subsets of the
// last batch it saw.
type Progressive struct {
	variable string
	limits   bounds.Range
	outlets  *pipeline.Branchpoint
	cache    *pipeline.CachedSegment

	mu       sync.Mutex
	fraction float64
	untap    func()
	closed   bool
}

// New creates a Progressive over variable within limits, taps it onto
// source and returns it. A nil source leaves it untapped; batches can
// then be fed with Send.
func New(source *pipeline.Branchpoint, variable string, limits bounds.Range, outlets ...pipeline.Target) (*Progressive, error) {
	if variable == "" {
		return nil, ErrNoVariable
	}
	if !limits.IsSet() || limits.Span() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLimits, limits)
	}

	p := &Progressive{
		variable: variable,
		limits:   limits,
		outlets:  pipeline.NewBranchpoint(outlets...),
		untap:    func() {},
	}
	// A cache without WithForward holds batches until a frame asks.
	cache, err := pipeline.NewCachedSegment(pipeline.TargetFunc(p.window))
	if err != nil {
		return nil, err
	}
	p.cache = cache

	if source != nil {
		p.untap = source.Tap(p)
	}
	return p, nil
}

// Variable returns the animated field.
func (p *Progressive) Variable() string {
	return p.variable
}

// Limits returns the animated range.
func (p *Progressive) Limits() bounds.Range {
	return p.limits
}

// Outlets returns the fan-out the frames are sent to. Outlets may be
// added and removed between frames.
func (p *Progressive) Outlets() *pipeline.Branchpoint {
	return p.outlets
}

// Fraction returns the fraction of the last frame.
func (p *Progressive) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fraction
}

// Send records b as the batch to animate. Nothing is forwarded.
func (p *Progressive) Send(ctx context.Context, b *record.Batch) error {
	return p.cache.Send(ctx, b)
}

// Start draws the empty first frame.
func (p *Progressive) Start(ctx context.Context) error {
	return p.Frame(ctx, 0)
}

// Frame sets the visible fraction, clamped to [0, 1], and replays the
// cached batch through the window to the outlets. With nothing cached it
// does nothing.
func (p *Progressive) Frame(ctx context.Context, fraction float64) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.fraction = min(max(fraction, 0), 1)
	p.mu.Unlock()

	return p.cache.ResendLast(ctx, 1)
}

// Close removes the tap. Calling it again has no effect.
func (p *Progressive) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.untap()
	p.cache.Clear()
	return nil
}

// window sends the rows of b inside the current frame to the outlets.
// Unlike a bounds filter, a batch without the variable is an error.
func (p *Progressive) window(ctx context.Context, b *record.Batch) error {
	p.mu.Lock()
	lo := p.limits.Min
	hi := lo + p.fraction*p.limits.Span()
	p.mu.Unlock()

	mask, err := b.RangeMask(p.variable, lo, hi)
	if err != nil {
		return fmt.Errorf("animating %s: %w", p.variable, err)
	}
	return p.outlets.Send(ctx, b.Select(mask))
}

// Fractions yields n+1 evenly spaced fractions from 0 to 1 inclusive.
// n below one yields only 1.
func Fractions(n int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		if n < 1 {
			yield(1)
			return
		}
		for i := 0; i <= n; i++ {
			if !yield(float64(i) / float64(n)) {
				return
			}
		}
	}
}
