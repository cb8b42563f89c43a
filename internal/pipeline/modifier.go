package pipeline

import (
	"context"

	"github.com/dshills/stormdrain/internal/flow"
	"github.com/dshills/stormdrain/internal/record"
)

// Modification is the input of an ItemModifier: a batch and the value to
// write into the configured field.
type Modification struct {
	Batch *record.Batch
	Value any
}

// ItemModifier sets one field of every row, in place, then forwards the
// batch. Value may be a scalar, written to every row, or a slice with one
// element per row.
//
// The write happens on the batch it was given, so an ItemModifier must be
// the only consumer of its input.
type ItemModifier struct {
	Segment
	field string
}

// NewItemModifier creates a modifier that writes field.
func NewItemModifier(target Target, field string) (*ItemModifier, error) {
	if field == "" {
		return nil, ErrNoFieldName
	}
	return &ItemModifier{Segment: Segment{target: target}, field: field}, nil
}

// Field returns the name of the modified field.
func (m *ItemModifier) Field() string {
	return m.field
}

// Send applies the modification and forwards the batch. A modifier with
// no field name forwards nothing and reports no error.
func (m *ItemModifier) Send(ctx context.Context, mod Modification) error {
	if m.field == "" || mod.Batch == nil {
		return nil
	}
	if err := mod.Batch.Set(m.field, mod.Value); err != nil {
		return err
	}
	return m.forward(ctx, mod.Batch)
}

// Fixed returns a batch Target that runs every batch through the
// modifier with the same value.
func (m *ItemModifier) Fixed(value any) Target {
	return flow.ReceiverFunc[*record.Batch](func(ctx context.Context, b *record.Batch) error {
		return m.Send(ctx, Modification{Batch: b, Value: value})
	})
}
