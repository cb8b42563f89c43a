package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/animation"
	"github.com/dshills/stormdrain/internal/bounds"
	"github.com/dshills/stormdrain/internal/config"
	"github.com/dshills/stormdrain/internal/dataset"
	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/linked"
	"github.com/dshills/stormdrain/internal/metrics"
	"github.com/dshills/stormdrain/internal/pipeline"
	"github.com/dshills/stormdrain/internal/record"
)

// ReasonLoad is the reflow reason used when new data is loaded.
const ReasonLoad = "data loaded"

// Load replaces the session data and reflows. A row-index column is
// added unless b already has one.
func (s *Session) Load(ctx context.Context, b *record.Batch) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if b == nil {
		return &OperationError{Op: "load", Err: ErrNoData}
	}

	index := s.Config().Dataset.IndexField
	if !b.Has(index) {
		indexed, err := dataset.Indexed(b, index)
		if err != nil {
			return &OperationError{Op: "load", Err: err}
		}
		b = indexed
	}

	s.serial.Lock()
	defer s.serial.Unlock()

	s.data.SetData(b)
	s.logger.Info("data loaded", zap.Int("rows", b.Len()), zap.Strings("fields", b.Schema().Names()))
	return s.panels.Reflow(ctx, ReasonLoad)
}

// Interact sets the limits of the named view as a user would and reports
// the change, which propagates to every linked view and reflows the data.
func (s *Session) Interact(ctx context.Context, view string, x, y bounds.Range) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.RLock()
	v, ok := s.views[view]
	acc := s.accs[view]
	s.mu.RUnlock()
	if !ok {
		return &OperationError{Op: "interact", Target: view, Err: ErrUnknownView}
	}

	v.SetLimits(x, y)
	// One change per axis; the second completes the gesture.
	if err := acc.LimitChanged(ctx); err != nil {
		return &OperationError{Op: "interact", Target: view, Err: err}
	}
	if err := acc.LimitChanged(ctx); err != nil {
		return &OperationError{Op: "interact", Target: view, Err: err}
	}
	return nil
}

// Nudge sets the limits of the named view without reporting them. With
// WithSettle the interaction is reported once the view has been quiet
// for the settle period; without it Nudge is Interact.
func (s *Session) Nudge(ctx context.Context, view string, x, y bounds.Range) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.mu.RLock()
	v, ok := s.views[view]
	d := s.settle[view]
	s.mu.RUnlock()
	if !ok {
		return &OperationError{Op: "nudge", Target: view, Err: ErrUnknownView}
	}
	if d == nil {
		return s.Interact(ctx, view, x, y)
	}

	v.SetLimits(x, y)
	d.Touch()
	return nil
}

// Settle reports every nudged view now instead of waiting.
func (s *Session) Settle(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}

	var errs []error
	for _, name := range s.ViewNames() {
		d := s.settle[name]
		if d == nil {
			continue
		}
		if err := d.Flush(ctx); err != nil {
			errs = append(errs, &OperationError{Op: "settle", Target: name, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Pending reports whether any nudged view is still waiting to settle.
func (s *Session) Pending() bool {
	for _, d := range s.settle {
		if d.Pending() {
			return true
		}
	}
	return false
}

// SetBounds writes ranges straight into the shared bounds and reflows.
func (s *Session) SetBounds(ctx context.Context, ranges map[string]bounds.Range) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.serial.Lock()
	defer s.serial.Unlock()
	return s.panels.SetBounds(ctx, ranges)
}

// Reflow pushes the current data through the pipeline again.
func (s *Session) Reflow(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.serial.Lock()
	defer s.serial.Unlock()
	return s.panels.Reflow(ctx, linked.ReasonBounds)
}

// ApplyConfig applies the live-reloadable parts of cfg: the configured
// bounds are written and the data reflowed. Other sections only take
// effect in a new session.
func (s *Session) ApplyConfig(ctx context.Context, cfg *config.Config) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := cfg.Validate(); err != nil {
		return &OperationError{Op: "apply config", Err: err}
	}
	initial, err := cfg.InitialBounds()
	if err != nil {
		return &OperationError{Op: "apply config", Err: err}
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.logger.Info("config applied", zap.Int("bounds", len(cfg.Bounds)))

	s.serial.Lock()
	defer s.serial.Unlock()
	return s.panels.SetBounds(ctx, initial.Snapshot())
}

// Mark writes value into field for every row currently passing the
// filter, in the session data itself, and reflows.
func (s *Session) Mark(ctx context.Context, field string, value any) error {
	if s.closed.Load() {
		return ErrClosed
	}

	s.serial.Lock()
	defer s.serial.Unlock()

	last := s.cache.Last(1)
	if len(last) == 0 {
		return &OperationError{Op: "mark", Target: field, Err: ErrNoData}
	}

	index := s.Config().Dataset.IndexField
	mod, err := pipeline.NewItemModifier(s.data.Updater(index, field), field)
	if err != nil {
		return &OperationError{Op: "mark", Target: field, Err: err}
	}
	if err := mod.Send(ctx, pipeline.Modification{Batch: last[0].Clone(), Value: value}); err != nil {
		return &OperationError{Op: "mark", Target: field, Err: err}
	}
	return s.panels.Reflow(ctx, linked.ReasonBounds)
}

// Resend pushes the last n filtered batches to the outputs again without
// refiltering.
func (s *Session) Resend(ctx context.Context, n int) error {
	s.serial.Lock()
	defer s.serial.Unlock()
	return s.cache.ResendLast(ctx, n)
}

// Animate taps the filtered data with an animation over variable that
// sends its frames to outlets. An unset limits uses the current bound
// of variable, then the extent of the latest output. The most recent
// filtered batch is already cached, so frames can be drawn at once.
//
// The animation is closed with the session.
func (s *Session) Animate(ctx context.Context, variable string, limits bounds.Range, outlets ...pipeline.Target) (*animation.Progressive, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	if !limits.IsSet() {
		limits = s.Bounds().Get(variable)
	}
	if !limits.IsSet() {
		if out := s.Output(); out != nil && out.Has(variable) {
			extent, err := out.Extent(variable)
			if err != nil {
				return nil, &OperationError{Op: "animate", Target: variable, Err: err}
			}
			limits = extent
		}
	}

	s.serial.Lock()
	defer s.serial.Unlock()

	p, err := animation.New(s.branch, variable, limits, outlets...)
	if err != nil {
		return nil, &OperationError{Op: "animate", Target: variable, Err: err}
	}
	if last := s.cache.Last(1); len(last) > 0 {
		if err := p.Send(ctx, last[0]); err != nil {
			_ = p.Close()
			return nil, &OperationError{Op: "animate", Target: variable, Err: fmt.Errorf("priming: %w", err)}
		}
	}

	s.mu.Lock()
	s.anims = append(s.anims, p)
	s.mu.Unlock()

	s.logger.Debug("animation started", zap.String("variable", variable), zap.Stringer("limits", limits))
	return p, nil
}

// Output returns the most recent filtered batch, or nil.
func (s *Session) Output() *record.Batch {
	return s.output.Last()
}

// Data returns the loaded data including the index column, or nil.
func (s *Session) Data() *record.Batch {
	return s.data.Data()
}

// View returns the named view.
func (s *Session) View(name string) (*linked.MemoryView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[name]
	return v, ok
}

// ViewNames returns the configured view names in configuration order.
func (s *Session) ViewNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Color returns the current color range, if a color field is configured.
func (s *Session) Color() (bounds.Range, bool) {
	if s.color == nil {
		return bounds.Unset(), false
	}
	return s.color.Range(), true
}

// Redraws returns how many reflows completed with a draw.
func (s *Session) Redraws() uint64 {
	return s.redraw.Draws()
}

// Bounds returns the shared bounds.
func (s *Session) Bounds() *bounds.Bounds {
	return s.panels.Bounds()
}

// Exchange returns the session exchange.
func (s *Session) Exchange() *exchange.Exchange {
	return s.xchg
}

// Panels returns the axis-link coordinator.
func (s *Session) Panels() *linked.Panels {
	return s.panels
}

// Config returns the active configuration.
func (s *Session) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Metrics returns the session metrics, or nil when no registry was given.
func (s *Session) Metrics() *metrics.Metrics {
	return s.metrics
}
