package record

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// Mask is a set of row indices.
type Mask struct {
	rb *roaring.Bitmap
}

// NewMask returns an empty mask.
func NewMask() *Mask {
	return &Mask{rb: roaring.New()}
}

// AllMask returns a mask selecting rows [0, n).
func AllMask(n int) *Mask {
	m := NewMask()
	if n > 0 {
		m.rb.AddRange(0, uint64(n))
	}
	return m
}

// MaskOf returns a mask selecting the given rows.
func MaskOf(rows ...int) *Mask {
	m := NewMask()
	for _, r := range rows {
		m.Add(r)
	}
	return m
}

// Add selects row i. Negative indices are ignored.
func (m *Mask) Add(i int) {
	if i < 0 {
		return
	}
	m.rb.Add(uint32(i))
}

// Remove deselects row i.
func (m *Mask) Remove(i int) {
	if i < 0 {
		return
	}
	m.rb.Remove(uint32(i))
}

// Contains reports whether row i is selected.
func (m *Mask) Contains(i int) bool {
	if i < 0 {
		return false
	}
	return m.rb.Contains(uint32(i))
}

// And intersects m with other in place.
func (m *Mask) And(other *Mask) {
	m.rb.And(other.rb)
}

// Or unions m with other in place.
func (m *Mask) Or(other *Mask) {
	m.rb.Or(other.rb)
}

// Len returns the number of selected rows.
func (m *Mask) Len() int {
	return int(m.rb.GetCardinality())
}

// IsEmpty reports whether no rows are selected.
func (m *Mask) IsEmpty() bool {
	return m.rb.IsEmpty()
}

// Clone returns a copy of the mask.
func (m *Mask) Clone() *Mask {
	return &Mask{rb: m.rb.Clone()}
}

// Rows yields selected row indices in ascending order.
func (m *Mask) Rows() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := m.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// Slice returns the selected row indices in ascending order.
func (m *Mask) Slice() []int {
	out := make([]int, 0, m.Len())
	for r := range m.Rows() {
		out = append(out, r)
	}
	return out
}
