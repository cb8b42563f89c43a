package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stormdrain/internal/exchange"
	"github.com/dshills/stormdrain/internal/pipeline"
	"github.com/dshills/stormdrain/internal/record"
)

func sample(t *testing.T) *record.Batch {
	t.Helper()
	s := record.MustSchema(
		record.Field{Name: "x", Kind: record.Float64},
		record.Field{Name: "flag", Kind: record.Int64},
	)
	b, err := record.NewBatch(s, []float64{1, 2, 3, 4}, []int64{0, 0, 0, 0})
	require.NoError(t, err)
	return b
}

func TestDataset_PushOnTrigger(t *testing.T) {
	x := exchange.New()
	c := pipeline.NewCollector()
	b := sample(t)
	ds := New(b, c)

	require.NoError(t, ds.Attach(x))
	require.NoError(t, x.Topic(exchange.ReflowStart).Send(context.Background(), "reflow"))

	assert.Same(t, b, c.Last())
	assert.Equal(t, 1, x.Topic(exchange.ReflowStart).Len())
}

func TestDataset_CustomTrigger(t *testing.T) {
	x := exchange.New()
	c := pipeline.NewCollector()
	ds := New(sample(t), c, WithTrigger(exchange.BoundsUpdated))
	require.NoError(t, ds.Attach(x))

	ctx := context.Background()
	require.NoError(t, x.Topic(exchange.ReflowStart).Send(ctx, "ignored"))
	assert.Equal(t, 0, c.Len())

	require.NoError(t, x.Topic(exchange.BoundsUpdated).Send(ctx, nil))
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, exchange.BoundsUpdated, ds.Trigger())
}

func TestDataset_Detach(t *testing.T) {
	x := exchange.New()
	c := pipeline.NewCollector()
	ds := New(sample(t), c)

	assert.ErrorIs(t, ds.Detach(), ErrNotAttached)

	require.NoError(t, ds.Attach(x))
	require.NoError(t, ds.Attach(x))
	assert.Equal(t, 1, x.Topic(exchange.ReflowStart).Len(), "re-attach moves the subscription")

	require.NoError(t, ds.Detach())
	require.NoError(t, x.Topic(exchange.ReflowStart).Send(context.Background(), "reflow"))
	assert.Equal(t, 0, c.Len())
}

func TestDataset_PushWithoutTarget(t *testing.T) {
	ds := New(sample(t), nil)
	assert.NoError(t, ds.Push(context.Background()))

	c := pipeline.NewCollector()
	ds.SetTarget(c)
	ds.SetData(nil)
	assert.NoError(t, ds.Push(context.Background()))
	assert.Equal(t, 0, c.Len())
}

func TestIndexed(t *testing.T) {
	b, err := Indexed(sample(t), "")
	require.NoError(t, err)

	idx, err := b.Int64s(DefaultIndexField)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2, 3}, idx)
}

func TestDataset_Updater(t *testing.T) {
	b, err := Indexed(sample(t), "row")
	require.NoError(t, err)
	ds := New(b, nil)

	sel := b.Select(record.MaskOf(1, 3))
	require.NoError(t, sel.Set("flag", int64(1)))

	require.NoError(t, ds.Updater("row", "flag").Send(context.Background(), sel))

	flags, _ := ds.Data().Int64s("flag")
	assert.Equal(t, []int64{0, 1, 0, 1}, flags)
}

func TestDataset_UpdaterMissingIndex(t *testing.T) {
	ds := New(sample(t), nil)
	err := ds.Updater("row").Send(context.Background(), sample(t))
	assert.ErrorIs(t, err, record.ErrFieldNotFound)
}

func TestDataset_SelectionRoundTrip(t *testing.T) {
	// Data flows through a filter and a modifier, then back into the
	// dataset, as a lasso selection would.
	b, err := Indexed(sample(t), DefaultIndexField)
	require.NoError(t, err)
	ds := New(b, nil)

	mod, err := pipeline.NewItemModifier(ds.Updater(DefaultIndexField, "flag"), "flag")
	require.NoError(t, err)

	ds.SetTarget(pipeline.TargetFunc(func(ctx context.Context, in *record.Batch) error {
		xs, _ := in.Float64s("x")
		m := record.NewMask()
		for i, v := range xs {
			if v >= 3 {
				m.Add(i)
			}
		}
		return mod.Send(ctx, pipeline.Modification{Batch: in.Select(m), Value: int64(7)})
	}))

	require.NoError(t, ds.Push(context.Background()))

	flags, _ := ds.Data().Int64s("flag")
	assert.Equal(t, []int64{0, 0, 7, 7}, flags)
}
