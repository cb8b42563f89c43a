// Package interaction turns raw view events into a single
// interaction.complete notification per user gesture.
//
// A drag or zoom produces a burst of limit-change, draw and mouse events.
// The Accumulator counts them and publishes the view once when the
// gesture has settled: either both limits changed with the mouse up (a
// toolbar "home" reset, say), or some limit changed, the view redrew and
// the mouse is up. The Debouncer covers sources that have no mouse-up,
// such as scroll-wheel zoom, by publishing after a quiet period.
package interaction

import (
	"context"
	"sync"

	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/linked"
)

// PublishFunc reports a settled interaction on view.
type PublishFunc func(ctx context.Context, view linked.View) error

// Publish returns a PublishFunc that sends the view on the
// interaction.complete topic of x.
func Publish(x *exchange.Exchange) PublishFunc {
	topic := x.Topic(exchange.InteractionComplete)
	return func(ctx context.Context, view linked.View) error {
		return topic.Send(ctx, view)
	}
}

// Accumulator folds the events of one view into interaction
// notifications.
//
// Events that arrive while the accumulator is publishing are dropped;
// they are the view's reaction to limits set by the coordinator.
type Accumulator struct {
	view    linked.View
	publish PublishFunc

	mu            sync.Mutex
	limitsChanged int
	gotDraw       bool
	mouseUp       bool
	firing        bool
}

// NewAccumulator creates an accumulator for view.
func NewAccumulator(view linked.View, publish PublishFunc) *Accumulator {
	return &Accumulator{
		view:    view,
		publish: publish,
		mouseUp: true,
	}
}

// View returns the tracked view.
func (a *Accumulator) View() linked.View {
	return a.view
}

// LimitChanged records that one axis of the view changed its limits.
func (a *Accumulator) LimitChanged(ctx context.Context) error {
	a.mu.Lock()
	if a.firing {
		a.mu.Unlock()
		return nil
	}
	a.limitsChanged++
	return a.checkLocked(ctx)
}

// Draw records that the view redrew. Draws only count after a limit
// change, so a redraw left over from an earlier gesture cannot complete
// the next one.
func (a *Accumulator) Draw(ctx context.Context) error {
	a.mu.Lock()
	if a.firing {
		a.mu.Unlock()
		return nil
	}
	if a.limitsChanged > 0 {
		a.gotDraw = true
	}
	return a.checkLocked(ctx)
}

// MouseDown records that a drag started.
func (a *Accumulator) MouseDown() {
	a.mu.Lock()
	a.mouseUp = false
	a.mu.Unlock()
}

// MouseUp records that a drag ended.
func (a *Accumulator) MouseUp(ctx context.Context) error {
	a.mu.Lock()
	a.mouseUp = true
	return a.checkLocked(ctx)
}

// Reset clears the gesture state. Mouse state is kept.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.resetLocked()
	a.mu.Unlock()
}

// Pending returns the number of limit changes seen since the last
// publish.
func (a *Accumulator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.limitsChanged
}

func (a *Accumulator) resetLocked() {
	a.limitsChanged = 0
	a.gotDraw = false
}

// checkLocked publishes if the gesture is complete. It is entered with
// a.mu held and releases it.
func (a *Accumulator) checkLocked(ctx context.Context) error {
	bothChanged := a.limitsChanged >= 2 && a.mouseUp
	complete := a.limitsChanged > 0 && a.gotDraw && a.mouseUp
	if !bothChanged && !complete {
		a.mu.Unlock()
		return nil
	}

	a.firing = true
	a.mu.Unlock()

	err := a.publish(ctx, a.view)

	a.mu.Lock()
	a.firing = false
	a.resetLocked()
	a.mu.Unlock()
	return err
}
