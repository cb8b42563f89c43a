package outlet

import (
	"errors"
	"sync"

	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/flow"
)

// ErrNotAttached is returned by Detach when the outlet is not attached.
var ErrNotAttached = errors.New("outlet is not attached")

// attachment tracks one topic subscription.
type attachment struct {
	mu    sync.Mutex
	topic *exchange.Topic
	sub   *exchange.Subscription
}

func (a *attachment) attach(x *exchange.Exchange, name exchange.Name, r flow.Receiver[any]) error {
	_ = a.detach()

	topic := x.Topic(name)
	sub, err := topic.Attach(r)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.topic, a.sub = topic, sub
	a.mu.Unlock()
	return nil
}

func (a *attachment) detach() error {
	a.mu.Lock()
	topic, sub := a.topic, a.sub
	a.topic, a.sub = nil, nil
	a.mu.Unlock()

	if topic == nil {
		return ErrNotAttached
	}
	return topic.Unsubscribe(sub)
}
