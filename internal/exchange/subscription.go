package exchange

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/stormdrain/internal/flow"
)

// FilterFunc is a predicate on messages. Return false to skip delivery.
type FilterFunc func(msg any) bool

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscriptionConfig)

type subscriptionConfig struct {
	filter FilterFunc
	once   bool
}

// WithFilter only delivers messages for which f returns true.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.filter = f
	}
}

// WithOnce detaches the subscription after its first successful delivery.
func WithOnce() SubscriptionOption {
	return func(c *subscriptionConfig) {
		c.once = true
	}
}

// Subscription is a handle to one attached receiver.
type Subscription struct {
	id       string
	topic    Name
	receiver flow.Receiver[any]
	config   subscriptionConfig
	active   atomic.Bool
}

func newSubscription(topic Name, r flow.Receiver[any], opts ...SubscriptionOption) *Subscription {
	s := &Subscription{
		id:       uuid.NewString(),
		topic:    topic,
		receiver: r,
	}
	for _, opt := range opts {
		opt(&s.config)
	}
	s.active.Store(true)
	return s
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Topic returns the topic name.
func (s *Subscription) Topic() Name {
	return s.topic
}

// Receiver returns the attached receiver.
func (s *Subscription) Receiver() flow.Receiver[any] {
	return s.receiver
}

// IsActive reports whether the subscription still receives messages.
func (s *Subscription) IsActive() bool {
	return s.active.Load()
}

func (s *Subscription) cancel() {
	s.active.Store(false)
}

func (s *Subscription) shouldDeliver(msg any) bool {
	if !s.IsActive() {
		return false
	}
	if s.config.filter != nil && !s.config.filter(msg) {
		return false
	}
	return true
}
