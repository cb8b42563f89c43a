package transform

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/stormdrain/internal/bounds"
)

func TestAffine(t *testing.T) {
	tests := []struct {
		name   string
		fn     Func
		in     bounds.Range
		expect bounds.Range
	}{
		{"identity", Identity(), bounds.NewRange(1, 2), bounds.NewRange(1, 2)},
		{"scale", Scale(1000), bounds.NewRange(1, 2), bounds.NewRange(1000, 2000)},
		{"offset", Offset(-1), bounds.NewRange(1, 2), bounds.NewRange(0, 1)},
		{"affine", Affine(2, 1), bounds.NewRange(1, 2), bounds.NewRange(3, 5)},
		{"negative scale", Scale(-1), bounds.NewRange(1, 2), bounds.NewRange(-2, -1)},
		{"unset", Scale(10), bounds.Unset(), bounds.Unset()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.expect.Equal(got, 1e-12), "got %v, want %v", got, tt.expect)
		})
	}
}

func TestChain(t *testing.T) {
	f := Chain(Scale(2), Offset(1))
	got, err := f(bounds.NewRange(0, 1))
	require.NoError(t, err)
	assert.Equal(t, bounds.NewRange(1, 3), got)
}

func TestLua_Apply(t *testing.T) {
	l, err := NewLua(`
function transform(min, max)
  return min * 1000, max * 1000
end
`)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.Apply(bounds.NewRange(1.5, 2))
	require.NoError(t, err)
	assert.Equal(t, bounds.NewRange(1500, 2000), got)

	got, err = l.Func()(bounds.Unset())
	require.NoError(t, err)
	assert.False(t, got.IsSet())
}

func TestLua_UsesMath(t *testing.T) {
	l, err := NewLua(`function transform(a, b) return math.min(a, b), math.max(a, b) end`)
	require.NoError(t, err)
	defer l.Close()

	got, err := l.Apply(bounds.NewRange(5, -5))
	require.NoError(t, err)
	assert.Equal(t, bounds.NewRange(-5, 5), got)
}

func TestLua_MissingFunction(t *testing.T) {
	_, err := NewLua(`x = 1`)
	assert.ErrorIs(t, err, ErrNoTransformFunc)
}

func TestLua_SyntaxError(t *testing.T) {
	_, err := NewLua(`function transform(`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load transform script")
}

func TestLua_BadResult(t *testing.T) {
	l, err := NewLua(`function transform(a, b) return "low", b end`)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Apply(bounds.NewRange(0, 1))
	assert.ErrorIs(t, err, ErrBadResult)
}

func TestLua_RuntimeError(t *testing.T) {
	l, err := NewLua(`function transform(a, b) error("nope") end`)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Apply(bounds.NewRange(0, 1))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "nope"))

	// The state stays usable after an error.
	_, err = l.Apply(bounds.NewRange(0, 1))
	require.Error(t, err)
}

func TestLua_Sandbox(t *testing.T) {
	for _, src := range []string{
		`os.exit(1)`,
		`io.open("/etc/passwd")`,
		`dofile("/etc/passwd")`,
		`require("os")`,
	} {
		_, err := NewLua(src)
		assert.Error(t, err, src)
	}
}

func TestLua_Timeout(t *testing.T) {
	l, err := NewLua(`function transform(a, b) while true do end end`, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Apply(bounds.NewRange(0, 1))
	assert.Error(t, err)
}

func TestLua_Closed(t *testing.T) {
	l, err := NewLua(`function transform(a, b) return a, b end`)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	_, err = l.Apply(bounds.NewRange(0, 1))
	assert.ErrorIs(t, err, ErrClosed)
}
