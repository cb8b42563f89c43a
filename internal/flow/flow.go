// Package flow defines the single-method capability shared by every
// pipeline stage, exchange subscriber and external collaborator.
//
// Anything that can accept a message implements Receiver. Stages pass
// record batches, exchange topics pass arbitrary payloads:
//
//	var stage flow.Receiver[*record.Batch] = pipeline.NewSegment(next)
//	var sub flow.Receiver[any] = flow.ReceiverFunc[any](func(ctx context.Context, msg any) error {
//	    log.Printf("got %v", msg)
//	    return nil
//	})
//
// Delivery is synchronous: Send returns once the receiver, and everything
// it forwards to, has finished with the message.
package flow

import (
	"context"
	"reflect"
)

// Receiver accepts one message at a time.
type Receiver[T any] interface {
	Send(ctx context.Context, msg T) error
}

// ReceiverFunc is a function adapter for Receiver.
//
// Function values are not comparable, so a ReceiverFunc cannot be detached
// by identity. Keep the Subscription returned on attach instead.
type ReceiverFunc[T any] func(ctx context.Context, msg T) error

// Send implements Receiver.
func (f ReceiverFunc[T]) Send(ctx context.Context, msg T) error {
	return f(ctx, msg)
}

// Discard is a Receiver that drops every message.
type Discard[T any] struct{}

// Send implements Receiver.
func (Discard[T]) Send(context.Context, T) error { return nil }

// Same reports whether a and b are the same receiver. Receivers whose
// dynamic value is not comparable (functions, maps, slices) are never the
// same as anything, including themselves.
func Same[T any](a, b Receiver[T]) bool {
	if a == nil || b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
