package outlet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stormdrain/internal/bounds"
	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/record"
)

var ctx = context.Background()

func colorBatch(t *testing.T, vals ...float64) *record.Batch {
	t.Helper()
	schema := record.MustSchema(record.Field{Name: "c", Kind: record.Float64})
	b, err := record.NewBatch(schema, vals)
	require.NoError(t, err)
	return b
}

func TestRangeUpdater_FromBounds(t *testing.T) {
	m := &MemoryMappable{}
	u := NewRangeUpdater(m, "c")

	b := bounds.New(nil)
	b.Set("c", bounds.NewRange(1, 2))
	require.NoError(t, u.Send(ctx, b))
	assert.Equal(t, bounds.NewRange(1, 2), m.Range())
}

func TestRangeUpdater_FallsBackToDefaults(t *testing.T) {
	m := &MemoryMappable{}
	defaults := bounds.New(nil)
	defaults.Set("c", bounds.NewRange(-1, 1))
	u := NewRangeUpdater(m, "c", WithDefaults(defaults))
	require.NoError(t, u.Sink().Send(ctx, colorBatch(t, 5, 9)))

	require.NoError(t, u.Send(ctx, bounds.New(nil)))
	assert.Equal(t, bounds.NewRange(-1, 1), m.Range())
}

func TestRangeUpdater_FallsBackToData(t *testing.T) {
	m := &MemoryMappable{}
	u := NewRangeUpdater(m, "c")
	require.NoError(t, u.Sink().Send(ctx, colorBatch(t, 5, 2, 9)))

	require.NoError(t, u.Send(ctx, bounds.New(nil)))
	assert.Equal(t, bounds.NewRange(2, 9), m.Range())
}

func TestRangeUpdater_NothingKnown(t *testing.T) {
	m := &MemoryMappable{}
	m.SetRange(bounds.NewRange(3, 4))
	u := NewRangeUpdater(m, "c")

	require.NoError(t, u.Send(ctx, bounds.New(nil)))
	assert.Equal(t, bounds.NewRange(3, 4), m.Range(), "range kept")
	assert.False(t, u.Update(nil).IsSet())
}

func TestRangeUpdater_IgnoresOtherMessages(t *testing.T) {
	m := &MemoryMappable{}
	u := NewRangeUpdater(m, "c")

	require.NoError(t, u.Send(ctx, "not bounds"))
	require.NoError(t, u.Send(ctx, (*bounds.Bounds)(nil)))
	assert.False(t, m.Range().IsSet())
}

func TestRangeUpdater_Attach(t *testing.T) {
	x := exchange.New()
	m := &MemoryMappable{}
	u := NewRangeUpdater(m, "c")

	require.NoError(t, u.Attach(x))
	require.NoError(t, u.Attach(x), "attaching again moves the subscription")
	assert.Equal(t, 1, x.Topic(exchange.BoundsUpdated).Len())

	b := bounds.New(nil)
	b.Set("c", bounds.NewRange(0, 7))
	require.NoError(t, x.Topic(exchange.BoundsUpdated).Send(ctx, b))
	assert.Equal(t, bounds.NewRange(0, 7), m.Range())

	require.NoError(t, u.Detach())
	assert.ErrorIs(t, u.Detach(), ErrNotAttached)
	assert.Equal(t, 0, x.Topic(exchange.BoundsUpdated).Len())
}

func TestRedrawer(t *testing.T) {
	x := exchange.New()
	var draws int
	r := NewRedrawer(DrawerFunc(func(context.Context) error {
		draws++
		return nil
	}))
	require.NoError(t, r.Attach(x))

	require.NoError(t, x.Topic(exchange.ReflowStart).Send(ctx, "start"))
	assert.Equal(t, 0, draws)

	require.NoError(t, x.Topic(exchange.ReflowDone).Send(ctx, "done"))
	assert.Equal(t, 1, draws)
	assert.Equal(t, uint64(1), r.Draws())

	require.NoError(t, r.Detach())
	require.NoError(t, x.Topic(exchange.ReflowDone).Send(ctx, "done"))
	assert.Equal(t, 1, draws)
}

func TestRedrawer_Error(t *testing.T) {
	boom := errors.New("boom")
	r := NewRedrawer(DrawerFunc(func(context.Context) error { return boom }))
	assert.ErrorIs(t, r.Send(ctx, nil), boom)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, r.Send(cancelled, nil), context.Canceled)
}
