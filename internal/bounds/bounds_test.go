package bounds

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(b *Bounds) []string {
	return slices.Collect(b.Names())
}

func TestBounds_GetUnset(t *testing.T) {
	b := New(nil)

	r := b.Get("x")
	assert.False(t, r.IsSet())

	_, ok := b.Lookup("x")
	assert.False(t, ok)
}

func TestBounds_ParentFallback(t *testing.T) {
	parent := New(nil)
	parent.SetLimits("k", 1, 2)
	child := New(parent)

	assert.Equal(t, NewRange(1, 2), child.Get("k"))
	assert.False(t, child.Has("k"))

	child.SetLimits("k", 3, 4)
	assert.Equal(t, NewRange(3, 4), child.Get("k"))
	assert.Equal(t, NewRange(1, 2), parent.Get("k"), "local write must not touch the parent")
}

func TestBounds_GrandparentFallback(t *testing.T) {
	root := New(nil)
	root.SetLimits("z", -1, 1)
	mid := New(root)
	leaf := New(mid)

	r, ok := leaf.Lookup("z")
	require.True(t, ok)
	assert.Equal(t, NewRange(-1, 1), r)
	assert.Same(t, mid, leaf.Parent())
}

func TestBounds_SetOverwrites(t *testing.T) {
	b := New(nil)
	b.SetLimits("x", 0, 1)
	b.SetLimits("y", 0, 1)
	b.SetLimits("x", 5, 6)

	assert.Equal(t, NewRange(5, 6), b.Get("x"))
	assert.Equal(t, []string{"x", "y"}, b.LocalNames(), "overwrite keeps insertion position")
}

func TestBounds_Names(t *testing.T) {
	parent := New(nil)
	parent.SetLimits("a", 0, 1)
	parent.SetLimits("b", 0, 1)
	parent.SetLimits("c", 0, 1)

	child := New(parent)
	child.SetLimits("c", 0, 2)
	child.SetLimits("d", 0, 2)

	assert.Equal(t, []string{"c", "d", "a", "b"}, collect(child))
	assert.Equal(t, []string{"a", "b", "c"}, collect(parent))
}

func TestBounds_NamesEarlyStop(t *testing.T) {
	parent := New(nil)
	parent.SetLimits("a", 0, 1)
	child := New(parent)
	child.SetLimits("b", 0, 1)

	var got []string
	for name := range child.Names() {
		got = append(got, name)
		break
	}
	assert.Equal(t, []string{"b"}, got)
}

func TestBounds_Limits(t *testing.T) {
	parent := New(nil)
	parent.SetLimits("x", 0, 10)
	child := New(parent)
	child.SetLimits("y", -5, 5)
	child.Set("t", Unset())

	var names []string
	var ranges []Range
	for name, r := range child.Limits() {
		names = append(names, name)
		ranges = append(ranges, r)
	}

	assert.Equal(t, []string{"y", "t", "x"}, names)
	assert.Equal(t, []Range{NewRange(-5, 5), {}, NewRange(0, 10)}, ranges)
}

func TestBounds_SetDuringIteration(t *testing.T) {
	b := New(nil)
	b.SetLimits("x", 0, 1)

	assert.NotPanics(t, func() {
		for name := range b.Names() {
			b.SetLimits(name+"2", 0, 1)
		}
	})
	assert.True(t, b.Has("x2"))
}

func TestBounds_Delete(t *testing.T) {
	parent := New(nil)
	parent.SetLimits("x", 0, 1)
	child := New(parent)
	child.SetLimits("x", 5, 6)

	assert.True(t, child.Delete("x"))
	assert.False(t, child.Delete("x"))
	assert.Equal(t, NewRange(0, 1), child.Get("x"))
	assert.Empty(t, child.LocalNames())
}

func TestBounds_FromMap(t *testing.T) {
	b := FromMap(nil, map[string]Range{
		"y": NewRange(0, 1),
		"x": NewRange(2, 3),
	})

	assert.Equal(t, []string{"x", "y"}, collect(b))
	assert.Equal(t, map[string]Range{"x": NewRange(2, 3), "y": NewRange(0, 1)}, b.Snapshot())
}

func TestBounds_String(t *testing.T) {
	b := New(nil)
	b.SetLimits("x", 0, 10)
	b.Set("y", Unset())

	assert.Equal(t, "Bounds{x: (0, 10), y: (unset, unset)}", b.String())
}
