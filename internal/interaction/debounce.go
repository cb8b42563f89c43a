package interaction

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/linked"
)

// Debouncer publishes a view once no limit change has been seen for a
// quiet period.
//
// The publish runs on a timer goroutine, not the caller's. A coordinator
// drops an interaction that arrives while it is busy, so when other code
// drives the same coordinator, publish should take a lock shared with it.
// Errors are logged, since there is no caller to return them to. Flush
// publishes on the calling goroutine instead.
type Debouncer struct {
	view    linked.View
	publish PublishFunc
	delay   time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	seq     uint64
}

// DebounceOption configures a Debouncer.
type DebounceOption func(*Debouncer)

// WithDebounceLogger sets the logger for publish errors.
func WithDebounceLogger(l *zap.Logger) DebounceOption {
	return func(d *Debouncer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDebouncer creates a debouncer for view.
func NewDebouncer(view linked.View, delay time.Duration, publish PublishFunc, opts ...DebounceOption) *Debouncer {
	d := &Debouncer{
		view:    view,
		publish: publish,
		delay:   delay,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Touch records a limit change and restarts the quiet period.
func (d *Debouncer) Touch() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if !d.pending || d.seq != seq {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()

		if err := d.publish(context.Background(), d.view); err != nil {
			d.logger.Warn("debounced interaction failed", zap.Error(err))
		}
	})
}

// Flush publishes immediately if a change is pending and cancels the
// timer.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	pending := d.pending
	d.pending = false
	d.mu.Unlock()

	if !pending {
		return nil
	}
	return d.publish(ctx, d.view)
}

// Cancel drops any pending change.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}

// Pending reports whether a publish is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
