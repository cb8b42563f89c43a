package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/exchange/dispatch"
	"github.com/dshills/stormdrain/internal/flow"
	"github.com/dshills/stormdrain/internal/metrics"
)

// Topic is the handle for one named channel.
type Topic struct {
	name Name
	x    *Exchange

	mu   sync.RWMutex
	subs []*Subscription

	sent      atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
}

func newTopic(x *Exchange, name Name) *Topic {
	return &Topic{name: name, x: x}
}

// Name returns the topic name.
func (t *Topic) Name() Name {
	return t.name
}

// Attach subscribes r to the topic. Attaching a receiver that is already
// attached returns its existing subscription.
func (t *Topic) Attach(r flow.Receiver[any], opts ...SubscriptionOption) (*Subscription, error) {
	if !t.name.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, t.name)
	}
	if r == nil {
		return nil, ErrNilReceiver
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range t.subs {
		if flow.Same(s.receiver, r) {
			return s, nil
		}
	}

	sub := newSubscription(t.name, r, opts...)
	t.subs = append(t.subs, sub)
	t.x.config.metrics.SetSubscribers(string(t.name), len(t.subs))
	return sub, nil
}

// Detach removes r from the topic.
// Returns ErrNotSubscribed if r is not attached.
func (t *Topic) Detach(r flow.Receiver[any]) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, s := range t.subs {
		if flow.Same(s.receiver, r) {
			t.removeLocked(i)
			return nil
		}
	}
	return ErrNotSubscribed
}

// Unsubscribe removes a subscription by handle. This works for receivers
// that cannot be compared, such as flow.ReceiverFunc.
func (t *Topic) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrNotSubscribed
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i, s := range t.subs {
		if s.id == sub.id {
			t.removeLocked(i)
			return nil
		}
	}
	return ErrNotSubscribed
}

func (t *Topic) removeLocked(i int) {
	t.subs[i].cancel()
	t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
	t.x.config.metrics.SetSubscribers(string(t.name), len(t.subs))
}

// Subscribe attaches rs, runs fn and detaches rs again on every exit path.
// If an attach fails, the receivers attached so far are detached and fn is
// not run.
func (t *Topic) Subscribe(fn func() error, rs ...flow.Receiver[any]) error {
	subs := make([]*Subscription, 0, len(rs))
	defer func() {
		for _, s := range subs {
			_ = t.Unsubscribe(s)
		}
	}()

	for _, r := range rs {
		s, err := t.Attach(r)
		if err != nil {
			return err
		}
		subs = append(subs, s)
	}

	return fn()
}

// Len returns the number of attached receivers.
func (t *Topic) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Subscriptions returns a snapshot of the current subscriptions.
func (t *Topic) Subscriptions() []*Subscription {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Subscription, len(t.subs))
	copy(out, t.subs)
	return out
}

// Send delivers msg once to every current subscriber.
//
// Failures are isolated per subscriber: the remaining subscribers are
// still called, and all failures are returned joined. With WithFailFast
// delivery stops at the first failure. A cancelled context stops delivery
// before the next subscriber. A topic with an invalid name fails with
// ErrInvalidTopic before anything is delivered.
func (t *Topic) Send(ctx context.Context, msg any) error {
	if !t.name.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTopic, t.name)
	}
	subs := t.Subscriptions()

	t.sent.Add(1)
	t.x.config.metrics.RecordSend(string(t.name))

	if len(subs) == 0 {
		return nil
	}

	var errs []error
	for _, sub := range subs {
		if !sub.shouldDeliver(msg) {
			continue
		}

		res := t.x.executor.Execute(ctx, msg, sub.receiver)
		if res.Skipped {
			t.x.config.metrics.RecordDelivery(string(t.name), metrics.StatusSkipped, 0)
			errs = append(errs, res.Error)
			break
		}

		if err := t.record(sub, res); err != nil {
			errs = append(errs, err)
			if t.x.config.failFast {
				break
			}
			continue
		}

		if sub.config.once {
			_ = t.Unsubscribe(sub)
		}
	}

	return errors.Join(errs...)
}

// record updates statistics for one delivery and converts a failed result
// into a *DeliveryError.
func (t *Topic) record(sub *Subscription, res dispatch.Result) error {
	name := string(t.name)

	switch {
	case res.Panicked:
		t.panicked.Add(1)
		t.x.config.metrics.RecordDelivery(name, metrics.StatusPanic, res.Duration)
		return &DeliveryError{
			Topic:          t.name,
			SubscriptionID: sub.id,
			Err:            &PanicError{Value: res.PanicValue, Stack: string(res.PanicStack)},
		}
	case res.Error != nil:
		t.failed.Add(1)
		t.x.config.metrics.RecordDelivery(name, metrics.StatusError, res.Duration)
		t.x.config.logger.Warn("subscriber failed",
			zap.String("topic", name),
			zap.String("subscription", sub.id),
			zap.Error(res.Error),
		)
		return &DeliveryError{Topic: t.name, SubscriptionID: sub.id, Err: res.Error}
	default:
		t.delivered.Add(1)
		t.x.config.metrics.RecordDelivery(name, metrics.StatusOK, res.Duration)
		return nil
	}
}

// Stats returns delivery statistics for this topic.
func (t *Topic) Stats() Stats {
	return Stats{
		MessagesSent: t.sent.Load(),
		Delivered:    t.delivered.Load(),
		Failed:       t.failed.Load(),
		Panicked:     t.panicked.Load(),
		Subscribers:  t.Len(),
	}
}
