package outlet

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/bounds"
	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/pipeline"
	"github.com/dshills/stormdrain/internal/record"
)

// Mappable is anything with a value range that maps data to a visual
// property, such as a color scale.
type Mappable interface {
	SetRange(r bounds.Range)
}

// MemoryMappable stores the last range it was given.
type MemoryMappable struct {
	mu sync.RWMutex
	r  bounds.Range
}

// SetRange implements Mappable.
func (m *MemoryMappable) SetRange(r bounds.Range) {
	m.mu.Lock()
	m.r = r
	m.mu.Unlock()
}

// Range returns the stored range.
func (m *MemoryMappable) Range() bounds.Range {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.r
}

// RangeUpdater sets a Mappable's range from one field of the shared
// bounds.
//
// When the bounds leave the field unset the updater falls back to its
// default bounds, and after that to the extent of the last batch seen
// through Sink. If all three are unset the mappable keeps its range.
type RangeUpdater struct {
	field    string
	mappable Mappable
	defaults *bounds.Bounds
	logger   *zap.Logger

	mu   sync.RWMutex
	last *record.Batch

	at attachment
}

// RangeOption configures a RangeUpdater.
type RangeOption func(*RangeUpdater)

// WithDefaults sets the bounds consulted when the field is unset.
func WithDefaults(b *bounds.Bounds) RangeOption {
	return func(u *RangeUpdater) {
		u.defaults = b
	}
}

// WithRangeLogger sets the logger.
func WithRangeLogger(l *zap.Logger) RangeOption {
	return func(u *RangeUpdater) {
		if l != nil {
			u.logger = l
		}
	}
}

// NewRangeUpdater creates an updater driving m from field.
func NewRangeUpdater(m Mappable, field string, opts ...RangeOption) *RangeUpdater {
	u := &RangeUpdater{
		field:    field,
		mappable: m,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Field returns the coordinate name the updater follows.
func (u *RangeUpdater) Field() string {
	return u.field
}

// Attach subscribes the updater to bounds.updated on x.
func (u *RangeUpdater) Attach(x *exchange.Exchange) error {
	return u.at.attach(x, exchange.BoundsUpdated, u)
}

// Detach removes the subscription.
func (u *RangeUpdater) Detach() error {
	return u.at.detach()
}

// Sink returns a pipeline target that remembers the last batch for the
// data-extent fallback. It does not forward.
func (u *RangeUpdater) Sink() pipeline.Target {
	return pipeline.TargetFunc(func(_ context.Context, b *record.Batch) error {
		u.mu.Lock()
		u.last = b
		u.mu.Unlock()
		return nil
	})
}

// Send handles a bounds.updated message. Messages that are not
// *bounds.Bounds are ignored.
func (u *RangeUpdater) Send(_ context.Context, msg any) error {
	b, ok := msg.(*bounds.Bounds)
	if !ok || b == nil {
		return nil
	}

	r, source := u.resolve(b)
	if !r.IsSet() {
		return nil
	}
	u.logger.Debug("range updated",
		zap.String("field", u.field),
		zap.Stringer("range", r),
		zap.String("source", source),
	)
	u.mappable.SetRange(r)
	return nil
}

// Update recomputes the range from b and returns it without notifying.
func (u *RangeUpdater) Update(b *bounds.Bounds) bounds.Range {
	r, _ := u.resolve(b)
	return r
}

func (u *RangeUpdater) resolve(b *bounds.Bounds) (bounds.Range, string) {
	if b != nil {
		if r := b.Get(u.field); r.IsSet() {
			return r, "bounds"
		}
	}
	if u.defaults != nil {
		if r := u.defaults.Get(u.field); r.IsSet() {
			return r, "defaults"
		}
	}

	u.mu.RLock()
	last := u.last
	u.mu.RUnlock()
	if last != nil && last.Has(u.field) {
		if r, err := last.Extent(u.field); err == nil && r.IsSet() {
			return r, "data"
		}
	}
	return bounds.Unset(), ""
}
