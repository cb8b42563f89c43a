package outlet

import (
	"context"
	"sync/atomic"

	"github.com/dshills/stormdrain/internal/exchange"
)

// Drawer repaints a figure.
type Drawer interface {
	Draw(ctx context.Context) error
}

// DrawerFunc adapts a function to Drawer.
type DrawerFunc func(ctx context.Context) error

// Draw implements Drawer.
func (f DrawerFunc) Draw(ctx context.Context) error {
	return f(ctx)
}

// Redrawer calls a Drawer on every reflow.done message.
type Redrawer struct {
	drawer Drawer
	draws  atomic.Uint64
	at     attachment
}

// NewRedrawer creates a redrawer for d.
func NewRedrawer(d Drawer) *Redrawer {
	return &Redrawer{drawer: d}
}

// Attach subscribes the redrawer to reflow.done on x.
func (r *Redrawer) Attach(x *exchange.Exchange) error {
	return r.at.attach(x, exchange.ReflowDone, r)
}

// Detach removes the subscription.
func (r *Redrawer) Detach() error {
	return r.at.detach()
}

// Send draws. The message is ignored.
func (r *Redrawer) Send(ctx context.Context, _ any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.draws.Add(1)
	return r.drawer.Draw(ctx)
}

// Draws returns how many draws were requested.
func (r *Redrawer) Draws() uint64 {
	return r.draws.Load()
}
