package record

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dshills/stormdrain/internal/bounds"
)

// Batch is a column-oriented set of rows with a fixed schema.
type Batch struct {
	schema *Schema
	cols   []any
	n      int
}

// NewBatch creates a batch from one column per schema field, in schema
// order. Each column must be a []float64, []int64 or []string matching the
// field kind, and all columns must have the same length.
func NewBatch(schema *Schema, cols ...any) (*Batch, error) {
	if len(cols) != schema.Len() {
		return nil, fmt.Errorf("%w: %d columns for %d fields", ErrLengthMismatch, len(cols), schema.Len())
	}

	n := -1
	for i, f := range schema.fields {
		l, ok := columnLen(f.Kind, cols[i])
		if !ok {
			return nil, fieldErr(f.Name, fmt.Errorf("%w: want []%s, got %T", ErrKindMismatch, f.Kind, cols[i]))
		}
		if n >= 0 && l != n {
			return nil, fieldErr(f.Name, fmt.Errorf("%w: %d rows, want %d", ErrLengthMismatch, l, n))
		}
		n = l
	}
	if n < 0 {
		n = 0
	}

	return &Batch{schema: schema, cols: cols, n: n}, nil
}

// Empty returns a zero-row batch with the given schema.
func Empty(schema *Schema) *Batch {
	cols := make([]any, schema.Len())
	for i, f := range schema.fields {
		cols[i] = makeColumn(f.Kind, 0)
	}
	return &Batch{schema: schema, cols: cols}
}

// Len returns the number of rows.
func (b *Batch) Len() int {
	return b.n
}

// Schema returns the batch schema.
func (b *Batch) Schema() *Schema {
	return b.schema
}

// Has reports whether the batch has a field called name.
func (b *Batch) Has(name string) bool {
	return b.schema.Has(name)
}

// Column returns the raw column for name.
func (b *Batch) Column(name string) (any, error) {
	i := b.schema.Index(name)
	if i < 0 {
		return nil, fieldErr(name, ErrFieldNotFound)
	}
	return b.cols[i], nil
}

// Float64s returns the float64 column for name. The slice is shared with
// the batch.
func (b *Batch) Float64s(name string) ([]float64, error) {
	return typedColumn[float64](b, name)
}

// Int64s returns the int64 column for name. The slice is shared with the
// batch.
func (b *Batch) Int64s(name string) ([]int64, error) {
	return typedColumn[int64](b, name)
}

// Strings returns the string column for name. The slice is shared with the
// batch.
func (b *Batch) Strings(name string) ([]string, error) {
	return typedColumn[string](b, name)
}

func typedColumn[T any](b *Batch, name string) ([]T, error) {
	col, err := b.Column(name)
	if err != nil {
		return nil, err
	}
	v, ok := col.([]T)
	if !ok {
		return nil, fieldErr(name, ErrKindMismatch)
	}
	return v, nil
}

// Numeric returns the values of a numeric field as float64. Float64
// columns are returned without copying.
func (b *Batch) Numeric(name string) ([]float64, error) {
	col, err := b.Column(name)
	if err != nil {
		return nil, err
	}
	switch v := col.(type) {
	case []float64:
		return v, nil
	case []int64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fieldErr(name, ErrNotNumeric)
	}
}

// RangeMask returns the rows whose value for name lies in [lo, hi].
// NaN values are never selected.
func (b *Batch) RangeMask(name string, lo, hi float64) (*Mask, error) {
	vals, err := b.Numeric(name)
	if err != nil {
		return nil, err
	}
	m := NewMask()
	for i, v := range vals {
		if v >= lo && v <= hi {
			m.Add(i)
		}
	}
	return m, nil
}

// Select returns a new batch holding the rows selected by m, in row
// order. Indices beyond the batch length are ignored.
func (b *Batch) Select(m *Mask) *Batch {
	rows := make([]int, 0, m.Len())
	for r := range m.Rows() {
		if r >= b.n {
			break
		}
		rows = append(rows, r)
	}

	cols := make([]any, len(b.cols))
	for i, col := range b.cols {
		cols[i] = selectColumn(col, rows)
	}
	return &Batch{schema: b.schema, cols: cols, n: len(rows)}
}

// Set assigns value to every row of field name, in place. value is either
// a scalar, broadcast to all rows, or a slice with exactly Len elements.
// Float64 fields also accept int and int64 scalars.
func (b *Batch) Set(name string, value any) error {
	i := b.schema.Index(name)
	if i < 0 {
		return fieldErr(name, ErrFieldNotFound)
	}
	if err := assign(b.cols[i], value, b.n); err != nil {
		return fieldErr(name, err)
	}
	return nil
}

// WithField returns a new batch with an extra column. Existing columns are
// shared with b.
func (b *Batch) WithField(f Field, values any) (*Batch, error) {
	if b.schema.Has(f.Name) {
		return nil, fieldErr(f.Name, ErrFieldExists)
	}
	schema, err := b.schema.With(f)
	if err != nil {
		return nil, err
	}
	l, ok := columnLen(f.Kind, values)
	if !ok {
		return nil, fieldErr(f.Name, ErrKindMismatch)
	}
	if l != b.n {
		return nil, fieldErr(f.Name, fmt.Errorf("%w: %d rows, want %d", ErrLengthMismatch, l, b.n))
	}

	cols := make([]any, 0, len(b.cols)+1)
	cols = append(cols, b.cols...)
	cols = append(cols, values)
	return &Batch{schema: schema, cols: cols, n: b.n}, nil
}

// Scatter writes the named fields of src into b at the rows given by
// index, so that row index[k] of b receives row k of src. Both batches
// must share the field kinds.
func (b *Batch) Scatter(index []int64, src *Batch, fields ...string) error {
	if len(index) != src.n {
		return fmt.Errorf("%w: %d indices for %d rows", ErrLengthMismatch, len(index), src.n)
	}
	if len(fields) == 0 {
		fields = src.schema.Names()
	}
	for _, idx := range index {
		if idx < 0 || int(idx) >= b.n {
			return fmt.Errorf("row index %d out of range [0, %d)", idx, b.n)
		}
	}

	for _, name := range fields {
		dst, err := b.Column(name)
		if err != nil {
			return err
		}
		col, err := src.Column(name)
		if err != nil {
			return err
		}
		if err := scatterColumn(dst, col, index); err != nil {
			return fieldErr(name, err)
		}
	}
	return nil
}

// Extent returns the minimum and maximum of a numeric field, ignoring
// NaNs. It returns the unset range when there are no values.
func (b *Batch) Extent(name string) (bounds.Range, error) {
	vals, err := b.Numeric(name)
	if err != nil {
		return bounds.Range{}, err
	}

	finite := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return bounds.Range{}, nil
	}
	return bounds.NewRange(floats.Min(finite), floats.Max(finite)), nil
}

// Row returns row i as a map of field name to value.
func (b *Batch) Row(i int) map[string]any {
	row := make(map[string]any, len(b.cols))
	for j, f := range b.schema.fields {
		switch col := b.cols[j].(type) {
		case []float64:
			row[f.Name] = col[i]
		case []int64:
			row[f.Name] = col[i]
		case []string:
			row[f.Name] = col[i]
		}
	}
	return row
}

// Clone returns a deep copy of the batch.
func (b *Batch) Clone() *Batch {
	cols := make([]any, len(b.cols))
	for i, col := range b.cols {
		switch v := col.(type) {
		case []float64:
			cols[i] = append([]float64(nil), v...)
		case []int64:
			cols[i] = append([]int64(nil), v...)
		case []string:
			cols[i] = append([]string(nil), v...)
		}
	}
	return &Batch{schema: b.schema, cols: cols, n: b.n}
}

// String returns a short description of the batch.
func (b *Batch) String() string {
	return fmt.Sprintf("Batch(%d rows, %v)", b.n, b.schema.Names())
}

func columnLen(k Kind, col any) (int, bool) {
	switch v := col.(type) {
	case []float64:
		return len(v), k == Float64
	case []int64:
		return len(v), k == Int64
	case []string:
		return len(v), k == String
	default:
		return 0, false
	}
}

func makeColumn(k Kind, n int) any {
	switch k {
	case Float64:
		return make([]float64, n)
	case Int64:
		return make([]int64, n)
	default:
		return make([]string, n)
	}
}

func selectColumn(col any, rows []int) any {
	switch v := col.(type) {
	case []float64:
		return pick(v, rows)
	case []int64:
		return pick(v, rows)
	case []string:
		return pick(v, rows)
	}
	return col
}

func pick[T any](vals []T, rows []int) []T {
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = vals[r]
	}
	return out
}

func assign(col, value any, n int) error {
	switch dst := col.(type) {
	case []float64:
		switch v := value.(type) {
		case float64:
			fill(dst, v)
		case int:
			fill(dst, float64(v))
		case int64:
			fill(dst, float64(v))
		case []float64:
			return copyExact(dst, v, n)
		default:
			return fmt.Errorf("%w: cannot set float64 from %T", ErrKindMismatch, value)
		}
	case []int64:
		switch v := value.(type) {
		case int64:
			fill(dst, v)
		case int:
			fill(dst, int64(v))
		case []int64:
			return copyExact(dst, v, n)
		default:
			return fmt.Errorf("%w: cannot set int64 from %T", ErrKindMismatch, value)
		}
	case []string:
		switch v := value.(type) {
		case string:
			fill(dst, v)
		case []string:
			return copyExact(dst, v, n)
		default:
			return fmt.Errorf("%w: cannot set string from %T", ErrKindMismatch, value)
		}
	}
	return nil
}

func fill[T any](dst []T, v T) {
	for i := range dst {
		dst[i] = v
	}
}

func copyExact[T any](dst, src []T, n int) error {
	if len(src) != n {
		return fmt.Errorf("%w: %d values for %d rows", ErrLengthMismatch, len(src), n)
	}
	copy(dst, src)
	return nil
}

func scatterColumn(dst, src any, index []int64) error {
	switch d := dst.(type) {
	case []float64:
		s, ok := src.([]float64)
		if !ok {
			return ErrKindMismatch
		}
		scatter(d, s, index)
	case []int64:
		s, ok := src.([]int64)
		if !ok {
			return ErrKindMismatch
		}
		scatter(d, s, index)
	case []string:
		s, ok := src.([]string)
		if !ok {
			return ErrKindMismatch
		}
		scatter(d, s, index)
	}
	return nil
}

func scatter[T any](dst, src []T, index []int64) {
	for k, idx := range index {
		dst[idx] = src[k]
	}
}
