package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/stormdrain/internal/logging"
	"github.com/dshills/stormdrain/internal/outlet"
	"github.com/dshills/stormdrain/internal/pipeline"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	logger   *logging.Logger
	registry prometheus.Registerer
	drawer   outlet.Drawer
	sinks    []pipeline.Target
	settle   time.Duration
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRegistry enables Prometheus metrics registered on reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithDrawer sets the drawer called after every reflow.
func WithDrawer(d outlet.Drawer) Option {
	return func(o *options) {
		o.drawer = d
	}
}

// WithSink adds a target that receives every filtered batch.
func WithSink(t pipeline.Target) Option {
	return func(o *options) {
		if t != nil {
			o.sinks = append(o.sinks, t)
		}
	}
}

// WithSettle makes Nudge report a view's interaction once its limits have
// been left alone for d. The report is published from a timer goroutine
// and waits for any dataflow call in progress to finish.
func WithSettle(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.settle = d
		}
	}
}
