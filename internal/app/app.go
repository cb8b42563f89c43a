// Package app wires a stormdrain session together from configuration.
//
// A session owns one exchange and one set of linked views. Data loaded
// into it flows
//
//	dataset -> bounds filter -> cache -> branchpoint -> output, color range, sinks
//
// and is pushed again on every reflow, so the output always holds the rows
// inside the current bounds.
//
// Calls that drive the dataflow are serialized, including interactions
// settled on a timer (see WithSettle). They must not be made from a sink
// or drawer while a reflow is running.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/animation"
	"github.com/dshills/stormdrain/internal/bounds"
	"github.com/dshills/stormdrain/internal/config"
	"github.com/dshills/stormdrain/internal/dataset"
	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/interaction"
	"github.com/dshills/stormdrain/internal/linked"
	"github.com/dshills/stormdrain/internal/logging"
	"github.com/dshills/stormdrain/internal/metrics"
	"github.com/dshills/stormdrain/internal/outlet"
	"github.com/dshills/stormdrain/internal/pipeline"
	"github.com/dshills/stormdrain/internal/transform"
)

// Session is one running dataflow built from a Config.
type Session struct {
	mu  sync.RWMutex
	cfg *config.Config

	// serial is held while data moves through the pipeline.
	serial sync.Mutex

	logger  *logging.Logger
	metrics *metrics.Metrics

	xchg   *exchange.Exchange
	panels *linked.Panels
	views  map[string]*linked.MemoryView
	order  []string
	accs   map[string]*interaction.Accumulator
	settle map[string]*interaction.Debouncer

	data   *dataset.Dataset
	filter *pipeline.BoundsFilter
	cache  *pipeline.CachedSegment
	branch *pipeline.Branchpoint
	output *pipeline.Collector

	color  *outlet.MemoryMappable
	ranges *outlet.RangeUpdater
	redraw *outlet.Redrawer

	anims []*animation.Progressive
	luas  []*transform.Lua

	closed atomic.Bool
}

// New builds a session. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		cfg:    cfg,
		logger: o.logger.WithComponent("app"),
		views:  make(map[string]*linked.MemoryView),
		accs:   make(map[string]*interaction.Accumulator),
		settle: make(map[string]*interaction.Debouncer),
	}
	if o.registry != nil {
		s.metrics = metrics.New(o.registry)
	}

	if err := s.bootstrap(o); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// bootstrap initializes components in dependency order.
func (s *Session) bootstrap(o options) error {
	steps := []struct {
		name string
		init func(options) error
	}{
		{"exchange", s.initExchange},
		{"panels", s.initPanels},
		{"pipeline", s.initPipeline},
		{"dataset", s.initDataset},
		{"outlets", s.initOutlets},
	}
	for _, step := range steps {
		if err := step.init(o); err != nil {
			return &InitError{Component: step.name, Err: err}
		}
		s.logger.Debug("initialized", zap.String("component", step.name))
	}
	return nil
}

func (s *Session) initExchange(o options) error {
	xopts := []exchange.Option{
		exchange.WithLogger(o.logger.WithComponent("exchange").Logger),
		exchange.WithMetrics(s.metrics),
	}
	if s.cfg.Pipeline.FailFast {
		xopts = append(xopts, exchange.WithFailFast())
	}
	s.xchg = exchange.New(xopts...)
	return nil
}

func (s *Session) initPanels(o options) error {
	initial, err := s.cfg.InitialBounds()
	if err != nil {
		return err
	}

	s.panels = linked.New(s.xchg,
		linked.WithBounds(initial),
		linked.WithLogger(o.logger.WithComponent("linked").Logger),
		linked.WithMetrics(s.metrics),
	)

	publish := s.serialized(interaction.Publish(s.xchg))
	for _, vc := range s.cfg.Views {
		v := linked.NewMemoryView(vc.Name, vc.Aspect)
		v.SetLimits(initial.Get(vc.X), initial.Get(vc.Y))
		if err := s.panels.AddView(v, vc.X, vc.Y); err != nil {
			return err
		}
		if vc.AspectLocked {
			if err := s.panels.LockAspect(v); err != nil {
				return err
			}
		}
		s.views[vc.Name] = v
		s.order = append(s.order, vc.Name)
		s.accs[vc.Name] = interaction.NewAccumulator(v, publish)
		if o.settle > 0 {
			s.settle[vc.Name] = interaction.NewDebouncer(v, o.settle, publish,
				interaction.WithDebounceLogger(o.logger.WithComponent("interaction").Logger))
		}
	}
	return s.panels.Start()
}

// serialized wraps publish so it runs under the dataflow lock.
func (s *Session) serialized(publish interaction.PublishFunc) interaction.PublishFunc {
	return func(ctx context.Context, v linked.View) error {
		s.serial.Lock()
		defer s.serial.Unlock()
		return publish(ctx, v)
	}
}

func (s *Session) initPipeline(o options) error {
	s.output = pipeline.NewCollector()
	s.branch = pipeline.NewBranchpoint(s.output)
	for _, sink := range o.sinks {
		s.branch.Tap(sink)
	}

	cache, err := pipeline.NewCachedSegment(s.branch,
		pipeline.WithCapacity(s.cfg.Pipeline.CacheLength),
		pipeline.WithForward(),
		pipeline.WithCacheMetrics(s.metrics),
	)
	if err != nil {
		return err
	}
	s.cache = cache

	fopts := []pipeline.FilterOption{pipeline.WithFilterMetrics(s.metrics)}
	if len(s.cfg.Filter.RestrictTo) > 0 {
		fopts = append(fopts, pipeline.RestrictTo(s.cfg.Filter.RestrictTo...))
	}
	for _, tc := range s.cfg.Filter.Transforms {
		fn, err := s.buildTransform(tc)
		if err != nil {
			return err
		}
		fopts = append(fopts, pipeline.WithTransform(tc.From, tc.To, pipeline.RangeFunc(fn)))
	}
	s.filter = pipeline.NewBoundsFilter(s.cache, s.panels.Bounds(), fopts...)
	return nil
}

func (s *Session) buildTransform(tc config.TransformConfig) (transform.Func, error) {
	if !tc.IsLua() {
		return transform.Affine(tc.Affine()), nil
	}
	l, err := transform.NewLua(tc.Lua)
	if err != nil {
		return nil, &OperationError{Op: "compile transform", Target: tc.From + " -> " + tc.To, Err: err}
	}
	s.luas = append(s.luas, l)
	return l.Func(), nil
}

func (s *Session) initDataset(o options) error {
	s.data = dataset.New(nil, s.filter,
		dataset.WithTrigger(exchange.Name(s.cfg.Dataset.Trigger)),
		dataset.WithLogger(o.logger.WithComponent("dataset").Logger),
	)
	return s.data.Attach(s.xchg)
}

func (s *Session) initOutlets(o options) error {
	if field := s.cfg.Color.Field; field != "" {
		defaults := bounds.New(nil)
		if r := s.cfg.ColorDefault(); r.IsSet() {
			defaults.Set(field, r)
		}
		s.color = &outlet.MemoryMappable{}
		s.ranges = outlet.NewRangeUpdater(s.color, field,
			outlet.WithDefaults(defaults),
			outlet.WithRangeLogger(o.logger.WithComponent("outlet").Logger),
		)
		if err := s.ranges.Attach(s.xchg); err != nil {
			return err
		}
		s.branch.Tap(s.ranges.Sink())
	}

	drawer := o.drawer
	if drawer == nil {
		drawer = outlet.DrawerFunc(func(context.Context) error { return nil })
	}
	s.redraw = outlet.NewRedrawer(drawer)
	return s.redraw.Attach(s.xchg)
}

// Close detaches every component and releases transform scripts.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	for _, d := range s.settle {
		d.Cancel()
	}

	s.mu.Lock()
	anims := s.anims
	s.anims = nil
	s.mu.Unlock()

	var errs []error
	for _, a := range anims {
		errs = append(errs, a.Close())
	}
	if s.panels != nil {
		errs = append(errs, s.panels.Close())
	}
	if s.data != nil {
		errs = append(errs, ignoreNotAttached(s.data.Detach()))
	}
	if s.ranges != nil {
		errs = append(errs, ignoreNotAttached(s.ranges.Detach()))
	}
	if s.redraw != nil {
		errs = append(errs, ignoreNotAttached(s.redraw.Detach()))
	}
	for _, l := range s.luas {
		errs = append(errs, l.Close())
	}
	return errors.Join(errs...)
}

func ignoreNotAttached(err error) error {
	if errors.Is(err, dataset.ErrNotAttached) || errors.Is(err, outlet.ErrNotAttached) {
		return nil
	}
	return err
}
