package exchange

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stormdrain/internal/flow"
	"github.com/dshills/stormdrain/internal/metrics"
)

// task records every message it receives.
type task struct {
	name string
	got  []any
	err  error
}

func (t *task) Send(_ context.Context, msg any) error {
	t.got = append(t.got, msg)
	return t.err
}

func TestExchange_TopicIsSingleton(t *testing.T) {
	x := New()

	a := x.Topic("spam")
	b := x.Topic("spam")
	c := x.Topic("eggs")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, []Name{"eggs", "spam"}, x.Topics())
}

func TestExchange_Lookup(t *testing.T) {
	x := New()

	_, ok := x.Lookup(BoundsUpdated)
	assert.False(t, ok)

	created := x.Topic(BoundsUpdated)
	got, ok := x.Lookup(BoundsUpdated)
	require.True(t, ok)
	assert.Same(t, created, got)
}

func TestTopic_SendToAll(t *testing.T) {
	x := New()
	topic := x.Topic("spam")
	a, b := &task{name: "a"}, &task{name: "b"}

	_, err := topic.Attach(a)
	require.NoError(t, err)
	_, err = topic.Attach(b)
	require.NoError(t, err)

	require.NoError(t, topic.Send(context.Background(), "msg1"))

	assert.Equal(t, []any{"msg1"}, a.got)
	assert.Equal(t, []any{"msg1"}, b.got)
}

func TestTopic_SendNoSubscribers(t *testing.T) {
	x := New()
	assert.NoError(t, x.Topic("nobody").Send(context.Background(), "msg"))
	assert.Equal(t, uint64(1), x.Topic("nobody").Stats().MessagesSent)
}

func TestTopic_AttachIsIdempotent(t *testing.T) {
	topic := New().Topic("spam")
	a := &task{}

	s1, err := topic.Attach(a)
	require.NoError(t, err)
	s2, err := topic.Attach(a)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, topic.Len())

	require.NoError(t, topic.Send(context.Background(), 1))
	assert.Len(t, a.got, 1)
}

func TestTopic_AttachNil(t *testing.T) {
	_, err := New().Topic("spam").Attach(nil)
	assert.ErrorIs(t, err, ErrNilReceiver)
}

func TestTopic_Detach(t *testing.T) {
	topic := New().Topic("spam")
	a := &task{}

	sub, err := topic.Attach(a)
	require.NoError(t, err)
	require.NoError(t, topic.Detach(a))

	assert.False(t, sub.IsActive())
	assert.Equal(t, 0, topic.Len())

	require.NoError(t, topic.Send(context.Background(), "after"))
	assert.Empty(t, a.got)
}

func TestTopic_DetachNotSubscribed(t *testing.T) {
	topic := New().Topic("spam")
	assert.ErrorIs(t, topic.Detach(&task{}), ErrNotSubscribed)
}

func TestTopic_UnsubscribeFunc(t *testing.T) {
	topic := New().Topic("spam")
	calls := 0
	fn := flow.ReceiverFunc[any](func(context.Context, any) error {
		calls++
		return nil
	})

	sub, err := topic.Attach(fn)
	require.NoError(t, err)

	// Function receivers cannot be found by identity.
	assert.ErrorIs(t, topic.Detach(fn), ErrNotSubscribed)

	require.NoError(t, topic.Unsubscribe(sub))
	require.NoError(t, topic.Send(context.Background(), 1))
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, topic.Unsubscribe(sub), ErrNotSubscribed)
}

func TestTopic_Subscribe(t *testing.T) {
	topic := New().Topic("spam")
	a, b := &task{}, &task{}
	ctx := context.Background()

	err := topic.Subscribe(func() error {
		assert.Equal(t, 2, topic.Len())
		if err := topic.Send(ctx, "msg1"); err != nil {
			return err
		}
		return topic.Send(ctx, "msg2")
	}, a, b)
	require.NoError(t, err)

	require.NoError(t, topic.Send(ctx, "msg3"))

	assert.Equal(t, []any{"msg1", "msg2"}, a.got)
	assert.Equal(t, []any{"msg1", "msg2"}, b.got)
	assert.Equal(t, 0, topic.Len())
}

func TestTopic_SubscribeDetachesOnError(t *testing.T) {
	topic := New().Topic("spam")
	boom := errors.New("boom")

	err := topic.Subscribe(func() error { return boom }, &task{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, topic.Len())
}

func TestTopic_SubscribeDetachesOnPanic(t *testing.T) {
	topic := New().Topic("spam")

	assert.Panics(t, func() {
		_ = topic.Subscribe(func() error { panic("inside") }, &task{})
	})
	assert.Equal(t, 0, topic.Len())
}

func TestTopic_SubscribeNilReceiver(t *testing.T) {
	topic := New().Topic("spam")
	ran := false

	err := topic.Subscribe(func() error {
		ran = true
		return nil
	}, &task{}, nil)

	assert.ErrorIs(t, err, ErrNilReceiver)
	assert.False(t, ran)
	assert.Equal(t, 0, topic.Len())
}

func TestTopic_FailureIsolation(t *testing.T) {
	topic := New().Topic("spam")
	boom := errors.New("boom")

	first := &task{}
	broken := &task{err: boom}
	panicky := flow.ReceiverFunc[any](func(context.Context, any) error { panic("kaboom") })
	last := &task{}

	for _, r := range []flow.Receiver[any]{first, broken, panicky, last} {
		_, err := topic.Attach(r)
		require.NoError(t, err)
	}

	err := topic.Send(context.Background(), "msg")
	require.Error(t, err)

	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrReceiverPanic)

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, Name("spam"), de.Topic)

	assert.Len(t, first.got, 1)
	assert.Len(t, last.got, 1, "later subscribers still receive the message")

	stats := topic.Stats()
	assert.Equal(t, uint64(2), stats.Delivered)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Equal(t, uint64(1), stats.Panicked)
}

func TestTopic_FailFast(t *testing.T) {
	topic := New(WithFailFast()).Topic("spam")
	boom := errors.New("boom")
	broken := &task{err: boom}
	after := &task{}

	_, _ = topic.Attach(broken)
	_, _ = topic.Attach(after)

	err := topic.Send(context.Background(), "msg")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, after.got)
}

func TestTopic_CancelledContext(t *testing.T) {
	topic := New().Topic("spam")
	a := &task{}
	_, _ = topic.Attach(a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := topic.Send(ctx, "msg")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, a.got)
}

func TestTopic_Filter(t *testing.T) {
	topic := New().Topic("spam")
	a := &task{}
	_, _ = topic.Attach(a, WithFilter(func(msg any) bool {
		s, ok := msg.(string)
		return ok && s != "skip"
	}))

	ctx := context.Background()
	require.NoError(t, topic.Send(ctx, "keep"))
	require.NoError(t, topic.Send(ctx, "skip"))
	require.NoError(t, topic.Send(ctx, 3))

	assert.Equal(t, []any{"keep"}, a.got)
}

func TestTopic_Once(t *testing.T) {
	topic := New().Topic("spam")
	a := &task{}
	sub, _ := topic.Attach(a, WithOnce())

	ctx := context.Background()
	require.NoError(t, topic.Send(ctx, 1))
	require.NoError(t, topic.Send(ctx, 2))

	assert.Equal(t, []any{1}, a.got)
	assert.False(t, sub.IsActive())
}

func TestTopic_DetachDuringSend(t *testing.T) {
	topic := New().Topic("spam")
	later := &task{}

	detacher := &detachingTask{topic: topic}
	_, _ = topic.Attach(detacher)
	_, _ = topic.Attach(later)

	require.NoError(t, topic.Send(context.Background(), "first"))
	require.NoError(t, topic.Send(context.Background(), "second"))

	assert.Equal(t, 1, detacher.calls)
	assert.Equal(t, []any{"first", "second"}, later.got)
}

type detachingTask struct {
	topic *Topic
	calls int
}

func (d *detachingTask) Send(context.Context, any) error {
	d.calls++
	return d.topic.Detach(d)
}

func TestTopic_NestedSend(t *testing.T) {
	x := New()
	inner := &task{}
	_, _ = x.Topic("inner").Attach(inner)

	_, _ = x.Topic("outer").Attach(flow.ReceiverFunc[any](func(ctx context.Context, msg any) error {
		return x.Topic("inner").Send(ctx, msg)
	}))

	require.NoError(t, x.Topic("outer").Send(context.Background(), "relay"))
	assert.Equal(t, []any{"relay"}, inner.got)
}

func TestExchange_Stats(t *testing.T) {
	x := New()
	_, _ = x.Topic("a").Attach(&task{})
	_, _ = x.Topic("b").Attach(&task{err: errors.New("x")})

	_ = x.Topic("a").Send(context.Background(), 1)
	_ = x.Topic("b").Send(context.Background(), 1)

	s := x.Stats()
	assert.Equal(t, uint64(2), s.MessagesSent)
	assert.Equal(t, uint64(1), s.Delivered)
	assert.Equal(t, uint64(1), s.Failed)
	assert.Equal(t, 2, s.Subscribers)
}

func TestExchange_Metrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	x := New(WithMetrics(m))
	topic := x.Topic(BoundsUpdated)

	_, _ = topic.Attach(&task{})
	require.NoError(t, topic.Send(context.Background(), "b"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesSent.WithLabelValues("bounds.updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deliveries.WithLabelValues("bounds.updated", metrics.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Subscribers.WithLabelValues("bounds.updated")))
}

func TestName_Valid(t *testing.T) {
	tests := []struct {
		name Name
		want bool
	}{
		{"bounds.updated", true},
		{"spam", true},
		{"", false},
		{"a..b", false},
		{".a", false},
		{"a. b", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.name.Valid())
		})
	}
}

func TestTopic_InvalidName(t *testing.T) {
	x := New()
	topic := x.Topic("a..b")
	spam := &task{name: "spam"}

	_, err := topic.Attach(spam)
	assert.ErrorIs(t, err, ErrInvalidTopic)
	assert.Equal(t, 0, topic.Len())

	assert.ErrorIs(t, topic.Send(context.Background(), "x"), ErrInvalidTopic)
	assert.ErrorIs(t, x.Topic("").Send(context.Background(), "x"), ErrInvalidTopic)
	assert.ErrorIs(t, topic.Subscribe(func() error { return nil }, spam), ErrInvalidTopic)
}

func TestName_IsReserved(t *testing.T) {
	assert.True(t, ReflowDone.IsReserved())
	assert.False(t, Name("spam").IsReserved())
	assert.Equal(t, []string{"reflow", "start"}, ReflowStart.Segments())
}
