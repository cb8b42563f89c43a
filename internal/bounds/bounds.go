// Package bounds holds named numeric ranges with parent fallback.
//
// A Bounds maps coordinate names to Ranges. A lookup that misses locally
// is delegated to the parent, and a miss with no parent yields the unset
// range. Writes are always local, so a child can override an inherited
// range without touching the parent:
//
//	view := bounds.New(nil)
//	view.Set("x", bounds.NewRange(0, 10))
//
//	color := bounds.New(view)
//	color.Set("time", bounds.NewRange(100, 200))
//
//	color.Get("x")    // (0, 10), from view
//	color.Get("time") // (100, 200)
//	view.Get("time")  // (unset, unset)
//
// Names and Limits are lazy sequences: local names in insertion order,
// followed by inherited names that are not overridden locally.
package bounds

import (
	"iter"
	"slices"
	"strings"
	"sync"
)

// Bounds is a named range store with an optional parent.
//
// The parent is only read, never written, and is fixed at construction so
// parent chains cannot form cycles.
type Bounds struct {
	parent *Bounds

	mu    sync.RWMutex
	order []string
	local map[string]Range
}

// New creates an empty Bounds. parent may be nil.
func New(parent *Bounds) *Bounds {
	return &Bounds{
		parent: parent,
		local:  make(map[string]Range),
	}
}

// FromMap creates a Bounds holding the given ranges. Names are inserted in
// sorted order so that enumeration is deterministic.
func FromMap(parent *Bounds, ranges map[string]Range) *Bounds {
	b := New(parent)
	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		b.Set(name, ranges[name])
	}
	return b
}

// Parent returns the parent Bounds, or nil.
func (b *Bounds) Parent() *Bounds {
	return b.parent
}

// Set stores r under name locally, overwriting any local value.
func (b *Bounds) Set(name string, r Range) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.local[name]; !ok {
		b.order = append(b.order, name)
	}
	b.local[name] = r
}

// SetLimits is shorthand for Set(name, NewRange(lo, hi)).
func (b *Bounds) SetLimits(name string, lo, hi float64) {
	b.Set(name, NewRange(lo, hi))
}

// Delete removes the local value for name, uncovering any inherited one.
// It reports whether a local value existed.
func (b *Bounds) Delete(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.local[name]; !ok {
		return false
	}
	delete(b.local, name)
	for i, n := range b.order {
		if n == name {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the range for name, checking locally first and then the
// parent chain. It returns the unset range if nobody has it.
func (b *Bounds) Get(name string) Range {
	r, _ := b.Lookup(name)
	return r
}

// Lookup is like Get but also reports whether name was found anywhere in
// the chain.
func (b *Bounds) Lookup(name string) (Range, bool) {
	for cur := b; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		r, ok := cur.local[name]
		cur.mu.RUnlock()
		if ok {
			return r, true
		}
	}
	return Range{}, false
}

// Has reports whether name is stored locally.
func (b *Bounds) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.local[name]
	return ok
}

// LocalNames returns the locally stored names in insertion order.
func (b *Bounds) LocalNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Names yields local names in insertion order, then inherited names not
// overridden locally.
func (b *Bounds) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		local := b.LocalNames()
		for _, name := range local {
			if !yield(name) {
				return
			}
		}
		if b.parent == nil {
			return
		}

		seen := make(map[string]struct{}, len(local))
		for _, name := range local {
			seen[name] = struct{}{}
		}
		for name := range b.parent.Names() {
			if _, ok := seen[name]; ok {
				continue
			}
			if !yield(name) {
				return
			}
		}
	}
}

// Limits yields (name, range) pairs for every name in Names.
func (b *Bounds) Limits() iter.Seq2[string, Range] {
	return func(yield func(string, Range) bool) {
		for name := range b.Names() {
			if !yield(name, b.Get(name)) {
				return
			}
		}
	}
}

// Snapshot returns the effective ranges as a map.
func (b *Bounds) Snapshot() map[string]Range {
	out := make(map[string]Range)
	for name, r := range b.Limits() {
		out[name] = r
	}
	return out
}

// String formats the effective ranges in enumeration order.
func (b *Bounds) String() string {
	var sb strings.Builder
	sb.WriteString("Bounds{")
	first := true
	for name, r := range b.Limits() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(name)
		sb.WriteString(": ")
		sb.WriteString(r.String())
	}
	sb.WriteString("}")
	return sb.String()
}
