// Package dataset provides the source end of a pipeline: a record batch
// that is pushed downstream whenever a trigger topic fires.
//
// A Dataset is usually attached to the reflow.start topic, so every
// bounds change pushes the full data through the filters again:
//
//	ds := dataset.New(batch, filter)
//	if err := ds.Attach(xchg); err != nil {
//	    return err
//	}
//	defer ds.Detach()
//
// Indexed adds a row-number column so that rows which come back from a
// pipeline (e.g. after a selection) can be written into the original data
// with Updater.
package dataset

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/pipeline"
	"github.com/dshills/stormdrain/internal/record"
)

// DefaultIndexField is the name of the row-number column added by Indexed.
const DefaultIndexField = "point_id"

// ErrNotAttached is returned by Detach when the dataset is not attached.
var ErrNotAttached = errors.New("dataset is not attached")

// Dataset holds a batch and pushes it to a target on demand.
type Dataset struct {
	mu     sync.RWMutex
	data   *record.Batch
	target pipeline.Target

	trigger exchange.Name
	topic   *exchange.Topic
	sub     *exchange.Subscription

	logger *zap.Logger
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithTrigger sets the topic that makes the dataset push its data.
// The default is exchange.ReflowStart.
func WithTrigger(name exchange.Name) Option {
	return func(d *Dataset) {
		d.trigger = name
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dataset) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a dataset. target may be nil and set later.
func New(data *record.Batch, target pipeline.Target, opts ...Option) *Dataset {
	d := &Dataset{
		data:    data,
		target:  target,
		trigger: exchange.ReflowStart,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Data returns the held batch.
func (d *Dataset) Data() *record.Batch {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data
}

// SetData replaces the held batch. The new data is pushed on the next
// trigger.
func (d *Dataset) SetData(b *record.Batch) {
	d.mu.Lock()
	d.data = b
	d.mu.Unlock()
}

// Target returns the downstream stage.
func (d *Dataset) Target() pipeline.Target {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.target
}

// SetTarget replaces the downstream stage.
func (d *Dataset) SetTarget(t pipeline.Target) {
	d.mu.Lock()
	d.target = t
	d.mu.Unlock()
}

// Trigger returns the trigger topic name.
func (d *Dataset) Trigger() exchange.Name {
	return d.trigger
}

// Attach subscribes the dataset to its trigger topic on x. Attaching again
// moves the subscription.
func (d *Dataset) Attach(x *exchange.Exchange) error {
	_ = d.Detach()

	topic := x.Topic(d.trigger)
	sub, err := topic.Attach(d)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.topic, d.sub = topic, sub
	d.mu.Unlock()
	return nil
}

// Detach removes the dataset from its trigger topic.
func (d *Dataset) Detach() error {
	d.mu.Lock()
	topic, sub := d.topic, d.sub
	d.topic, d.sub = nil, nil
	d.mu.Unlock()

	if topic == nil {
		return ErrNotAttached
	}
	return topic.Unsubscribe(sub)
}

// Send handles a trigger message by pushing the data downstream. The
// message itself is ignored.
func (d *Dataset) Send(ctx context.Context, msg any) error {
	d.logger.Debug("dataset triggered",
		zap.String("topic", d.trigger.String()),
		zap.Any("message", msg),
	)
	return d.Push(ctx)
}

// Push sends the data to the target. It does nothing when there is no
// data or no target.
func (d *Dataset) Push(ctx context.Context) error {
	d.mu.RLock()
	data, target := d.data, d.target
	d.mu.RUnlock()

	if data == nil || target == nil {
		return nil
	}
	return target.Send(ctx, data)
}

// Updater returns a Target that writes the rows it receives back into the
// dataset. Rows are matched through indexField, which must hold original
// row numbers as added by Indexed. With no fields every field of the
// received batch is written.
func (d *Dataset) Updater(indexField string, fields ...string) pipeline.Target {
	return pipeline.TargetFunc(func(_ context.Context, b *record.Batch) error {
		index, err := b.Int64s(indexField)
		if err != nil {
			return err
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.data == nil {
			return nil
		}
		return d.data.Scatter(index, b, fields...)
	})
}

// Indexed returns b with an int64 column called name holding each row's
// position.
func Indexed(b *record.Batch, name string) (*record.Batch, error) {
	if name == "" {
		name = DefaultIndexField
	}
	index := make([]int64, b.Len())
	for i := range index {
		index[i] = int64(i)
	}
	return b.WithField(record.Field{Name: name, Kind: record.Int64}, index)
}
