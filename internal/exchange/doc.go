// Package exchange provides the named-topic publish/subscribe bus that
// decouples pipeline stages, the linked-panels coordinator and external
// collaborators.
//
// An Exchange is an explicit registry of topics. Topics are created on
// first reference and live as long as the Exchange:
//
//	xchg := exchange.New(exchange.WithLogger(logger))
//	bounds := xchg.Topic(exchange.BoundsUpdated)
//
//	sub, err := bounds.Attach(renderer)
//	...
//	err = bounds.Send(ctx, b) // delivered to renderer and every other subscriber
//	...
//	err = bounds.Detach(renderer)
//
// # Delivery
//
// Send is synchronous: it returns after every current subscriber has been
// called exactly once. Subscribers are called in attach order, but callers
// must not rely on any order. Sending to a topic with no subscribers is a
// no-op.
//
// A failing subscriber does not stop delivery to the others. Errors and
// recovered panics are collected and returned together from Send, each
// wrapped in a *DeliveryError. WithFailFast switches to stopping at the
// first failure.
//
// # Reserved Topics
//
//	bounds.updated       - payload: *bounds.Bounds that changed
//	reflow.start         - payload: advisory string; re-derive all outputs
//	reflow.done          - payload: advisory string; all reflow work finished
//	interaction.complete - payload: the view whose limits settled
//
// # Scoped Subscriptions
//
// Subscribe attaches receivers for the duration of a function and detaches
// them on every exit path, including panics:
//
//	err := topic.Subscribe(func() error {
//	    return topic.Send(ctx, "msg")
//	}, taskA, taskB)
//
// # Thread Safety
//
// Attach, Detach and Send are safe for concurrent use. Send delivers to a
// snapshot of the subscriber set taken when it starts; subscribers attached
// or detached during a send take effect on the next one.
package exchange
