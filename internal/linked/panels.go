package linked

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/bounds"
	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/metrics"
)

// DefaultTolerance is the absolute difference below which two range ends
// are considered unchanged.
const DefaultTolerance = 1e-12

// Reflow reasons carried on reflow.start and reflow.done.
const (
	ReasonInteraction = "linked panels triggered data reflow"
	ReasonBounds      = "bounds set directly"
	ReasonDone        = "linked panels reflow done"
)

type entry struct {
	view   View
	x, y   string
	locked bool
}

// Panels is the axis-link coordinator.
type Panels struct {
	xchg   *exchange.Exchange
	bounds *bounds.Bounds

	mu    sync.RWMutex
	views []*entry
	sub   *exchange.Subscription

	busy atomic.Bool

	tolerance float64
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures Panels.
type Option func(*Panels)

// WithBounds uses b instead of a fresh Bounds. This lets the panels share
// a Bounds with filters built beforehand, or inherit defaults from a
// parent.
func WithBounds(b *bounds.Bounds) Option {
	return func(p *Panels) {
		if b != nil {
			p.bounds = b
		}
	}
}

// WithTolerance sets the change-detection tolerance.
func WithTolerance(tol float64) Option {
	return func(p *Panels) {
		p.tolerance = tol
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Panels) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Panels) {
		p.metrics = m
	}
}

// New creates a coordinator that publishes on x. Call Start to begin
// handling interactions.
func New(x *exchange.Exchange, opts ...Option) *Panels {
	p := &Panels{
		xchg:      x,
		bounds:    bounds.New(nil),
		tolerance: DefaultTolerance,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Bounds returns the bounds holding the current extent of every
// coordinate.
func (p *Panels) Bounds() *bounds.Bounds {
	return p.bounds
}

// AddView registers v with its horizontal and vertical coordinate names.
// v must be comparable, typically a pointer. A struct value holding a
// slice, map or func, directly or through an interface field, is
// rejected with ErrInvalidView.
func (p *Panels) AddView(v View, xName, yName string) error {
	if v == nil || !reflect.ValueOf(v).Comparable() {
		return ErrInvalidView
	}
	if xName == "" || yName == "" {
		return ErrEmptyCoordinate
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.findLocked(v) != nil {
		return ErrViewExists
	}
	p.views = append(p.views, &entry{view: v, x: xName, y: yName})
	return nil
}

// RemoveView unregisters v.
func (p *Panels) RemoveView(v View) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, e := range p.views {
		if sameView(e.view, v) {
			p.views = append(p.views[:i:i], p.views[i+1:]...)
			return nil
		}
	}
	return ErrViewNotFound
}

// LockAspect keeps v's extents in proportion to its physical aspect ratio.
func (p *Panels) LockAspect(v View) error {
	return p.setLocked(v, true)
}

// UnlockAspect lets v's extents change independently again.
func (p *Panels) UnlockAspect(v View) error {
	return p.setLocked(v, false)
}

func (p *Panels) setLocked(v View, locked bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := p.findLocked(v)
	if e == nil {
		return ErrViewNotFound
	}
	e.locked = locked
	return nil
}

// IsLocked reports whether v is aspect-locked.
func (p *Panels) IsLocked(v View) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e := p.findLocked(v)
	return e != nil && e.locked
}

// Coordinates returns the coordinate names of v.
func (p *Panels) Coordinates(v View) (x, y string, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e := p.findLocked(v)
	if e == nil {
		return "", "", false
	}
	return e.x, e.y, true
}

// Views returns the registered views in registration order.
func (p *Panels) Views() []View {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]View, len(p.views))
	for i, e := range p.views {
		out[i] = e.view
	}
	return out
}

// ViewsUsing returns the views with name as either coordinate.
func (p *Panels) ViewsUsing(name string) []View {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []View
	for _, e := range p.views {
		if e.x == name || e.y == name {
			out = append(out, e.view)
		}
	}
	return out
}

func (p *Panels) findLocked(v View) *entry {
	for _, e := range p.views {
		if sameView(e.view, v) {
			return e
		}
	}
	return nil
}

// sameView compares by value without panicking on views whose dynamic
// value cannot be compared.
func sameView(a, b View) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}

// Start subscribes the panels to interaction.complete.
func (p *Panels) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sub != nil {
		return ErrAlreadyStarted
	}
	sub, err := p.xchg.Topic(exchange.InteractionComplete).Attach(p)
	if err != nil {
		return err
	}
	p.sub = sub
	return nil
}

// Close unsubscribes the panels from interaction.complete.
func (p *Panels) Close() error {
	p.mu.Lock()
	sub := p.sub
	p.sub = nil
	p.mu.Unlock()

	if sub == nil {
		return nil
	}
	return p.xchg.Topic(exchange.InteractionComplete).Unsubscribe(sub)
}

// Send handles an interaction.complete message. Messages that are not a
// View are ignored.
func (p *Panels) Send(ctx context.Context, msg any) error {
	v, ok := msg.(View)
	if !ok {
		p.logger.Debug("ignoring interaction message", zap.Any("message", msg))
		p.metrics.RecordInteraction(metrics.StatusSkipped)
		return nil
	}
	return p.Interact(ctx, v)
}

// Interact reconciles the limits of v, which a user has just changed,
// with every linked view. Unregistered views are ignored. Calls made
// while another interaction or reflow is in progress are dropped.
func (p *Panels) Interact(ctx context.Context, v View) error {
	if !p.busy.CompareAndSwap(false, true) {
		p.logger.Debug("dropping re-entrant interaction")
		p.metrics.RecordInteraction(metrics.StatusReentrant)
		return nil
	}
	defer p.busy.Store(false)

	p.mu.RLock()
	e := p.findLocked(v)
	var xName, yName string
	var locked bool
	if e != nil {
		xName, yName, locked = e.x, e.y, e.locked
	}
	p.mu.RUnlock()

	if e == nil {
		p.metrics.RecordInteraction(metrics.StatusSkipped)
		return nil
	}

	newX, newY := v.Limits()
	if locked {
		var err error
		newX, newY, err = ReconcileAspect(newX, newY, v.Aspect())
		if err != nil {
			p.metrics.RecordInteraction(metrics.StatusError)
			return err
		}
	}

	oldX, oldY := p.bounds.Get(xName), p.bounds.Get(yName)
	if newX.Equal(oldX, p.tolerance) && newY.Equal(oldY, p.tolerance) {
		p.metrics.RecordInteraction(metrics.StatusSkipped)
		return nil
	}

	p.bounds.Set(xName, newX)
	p.bounds.Set(yName, newY)
	n := p.syncViews(xName, yName)

	p.logger.Debug("bounds changed",
		zap.String("x", xName),
		zap.Stringer("xRange", newX),
		zap.String("y", yName),
		zap.Stringer("yRange", newY),
		zap.Int("views", n),
	)
	p.metrics.RecordInteraction(metrics.StatusOK)

	return p.notify(ctx, ReasonInteraction)
}

// SetBounds writes ranges directly, pushes them to every view that uses
// one of the names, and reflows. Aspect locks are not applied.
func (p *Panels) SetBounds(ctx context.Context, ranges map[string]bounds.Range) error {
	if !p.busy.CompareAndSwap(false, true) {
		p.metrics.RecordInteraction(metrics.StatusReentrant)
		return nil
	}
	defer p.busy.Store(false)

	names := make([]string, 0, len(ranges))
	for name, r := range ranges {
		p.bounds.Set(name, r)
		names = append(names, name)
	}
	p.syncViews(names...)
	return p.notify(ctx, ReasonBounds)
}

// Reflow publishes bounds.updated, reflow.start and reflow.done without a
// bounds change, e.g. after new data is loaded.
func (p *Panels) Reflow(ctx context.Context, reason string) error {
	if !p.busy.CompareAndSwap(false, true) {
		p.metrics.RecordInteraction(metrics.StatusReentrant)
		return nil
	}
	defer p.busy.Store(false)

	if reason == "" {
		reason = ReasonInteraction
	}
	return p.notify(ctx, reason)
}

// syncViews sets the limits of every view using one of names from the
// bounds, and returns how many views were updated.
func (p *Panels) syncViews(names ...string) int {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}

	p.mu.RLock()
	var targets []*entry
	for _, e := range p.views {
		_, ux := want[e.x]
		_, uy := want[e.y]
		if ux || uy {
			targets = append(targets, e)
		}
	}
	p.mu.RUnlock()

	for _, e := range targets {
		e.view.SetLimits(p.bounds.Get(e.x), p.bounds.Get(e.y))
	}
	return len(targets)
}

// notify publishes the three reflow notifications in order. A failure in
// one stage does not stop the later ones; all failures are returned.
func (p *Panels) notify(ctx context.Context, reason string) error {
	steps := []struct {
		topic exchange.Name
		msg   any
	}{
		{exchange.BoundsUpdated, p.bounds},
		{exchange.ReflowStart, reason},
		{exchange.ReflowDone, ReasonDone},
	}

	var errs []error
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := p.xchg.Topic(s.topic).Send(ctx, s.msg); err != nil {
			p.logger.Warn("reflow notification failed",
				zap.String("topic", s.topic.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	p.metrics.RecordReflow()
	return errors.Join(errs...)
}
