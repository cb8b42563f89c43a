package bounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRange_ZeroIsUnset(t *testing.T) {
	var r Range
	assert.False(t, r.IsSet())
	assert.True(t, r.Contains(-1e300))
	assert.Equal(t, 0.0, r.Span())
	assert.Equal(t, "(unset, unset)", r.String())
}

func TestRange_Contains(t *testing.T) {
	r := NewRange(0, 10)

	tests := []struct {
		v    float64
		want bool
	}{
		{-0.1, false},
		{0, true},
		{5, true},
		{10, true},
		{10.1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Contains(tt.v), "Contains(%g)", tt.v)
	}
}

func TestRange_Inverted(t *testing.T) {
	r := NewRange(10, 0)
	assert.True(t, r.IsSet())
	assert.Equal(t, -10.0, r.Span())
	assert.False(t, r.Contains(5))
}

func TestRange_SpanCenter(t *testing.T) {
	r := NewRange(-2, 6)
	assert.Equal(t, 8.0, r.Span())
	assert.Equal(t, 2.0, r.Center())
}

func TestRange_Grow(t *testing.T) {
	assert.Equal(t, NewRange(-1, 11), NewRange(0, 10).Grow(1))
	assert.False(t, Unset().Grow(1).IsSet())
}

func TestRange_Equal(t *testing.T) {
	a := NewRange(0, 1)

	assert.True(t, a.Equal(NewRange(0, 1), 0))
	assert.True(t, a.Equal(NewRange(1e-12, 1-1e-12), 1e-9))
	assert.False(t, a.Equal(NewRange(0, 1.1), 1e-9))
	assert.False(t, a.Equal(Unset(), 1))
	assert.True(t, Unset().Equal(Range{}, 0))
}

func TestRange_Pair(t *testing.T) {
	lo, hi, ok := NewRange(3, 4).Pair()
	assert.Equal(t, 3.0, lo)
	assert.Equal(t, 4.0, hi)
	assert.True(t, ok)

	_, _, ok = Unset().Pair()
	assert.False(t, ok)
}
