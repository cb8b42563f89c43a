package linked

import (
	"sync"

	"github.com/dshills/stormdrain/internal/bounds"
)

// View is a 2-D view whose limits Panels keeps in sync.
//
// SetLimits is called by Panels and must not be reported back as a user
// interaction. Aspect is only called for aspect-locked views and returns
// the physical height divided by the physical width.
type View interface {
	Limits() (x, y bounds.Range)
	SetLimits(x, y bounds.Range)
	Aspect() float64
}

// MemoryView is a View that only stores its limits. It stands in for a
// plot when running headless.
type MemoryView struct {
	name string

	mu     sync.RWMutex
	x, y   bounds.Range
	aspect float64
}

// NewMemoryView creates a view with the given physical aspect ratio
// (height / width).
func NewMemoryView(name string, aspect float64) *MemoryView {
	return &MemoryView{name: name, aspect: aspect}
}

// Name returns the view name.
func (v *MemoryView) Name() string {
	return v.name
}

// Limits implements View.
func (v *MemoryView) Limits() (x, y bounds.Range) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.x, v.y
}

// SetLimits implements View.
func (v *MemoryView) SetLimits(x, y bounds.Range) {
	v.mu.Lock()
	v.x, v.y = x, y
	v.mu.Unlock()
}

// Aspect implements View.
func (v *MemoryView) Aspect() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.aspect
}

// SetAspect changes the physical aspect ratio, as a window resize would.
func (v *MemoryView) SetAspect(a float64) {
	v.mu.Lock()
	v.aspect = a
	v.mu.Unlock()
}

// String returns the view name.
func (v *MemoryView) String() string {
	return v.name
}
