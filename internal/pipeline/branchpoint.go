package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/dshills/stormdrain/internal/flow"
	"github.com/dshills/stormdrain/internal/record"
)

// Branchpoint broadcasts each batch to a dynamic set of targets.
//
// Targets may be added and removed between sends, which lets a consumer
// tap into a live pipeline. Each send goes to a snapshot of the targets
// taken when the send starts. Consumers must not rely on the order in
// which siblings are called.
type Branchpoint struct {
	mu      sync.RWMutex
	targets []branch
	nextID  uint64
}

type branch struct {
	id     uint64
	target Target
}

// NewBranchpoint creates a Branchpoint with the given initial targets.
// Duplicates and nil targets are dropped.
func NewBranchpoint(targets ...Target) *Branchpoint {
	bp := &Branchpoint{}
	for _, t := range targets {
		bp.Add(t)
	}
	return bp
}

// Add attaches t. It returns false if t is nil or already attached.
func (bp *Branchpoint) Add(t Target) bool {
	_, ok := bp.add(t)
	return ok
}

// Tap attaches t and returns a function that detaches it again. Unlike
// Remove, this works for targets that cannot be compared, such as
// TargetFunc. If t is already attached the returned function is a no-op.
func (bp *Branchpoint) Tap(t Target) (untap func()) {
	id, ok := bp.add(t)
	if !ok {
		return func() {}
	}
	return func() {
		bp.mu.Lock()
		defer bp.mu.Unlock()
		for i, br := range bp.targets {
			if br.id == id {
				bp.targets = append(bp.targets[:i:i], bp.targets[i+1:]...)
				return
			}
		}
	}
}

func (bp *Branchpoint) add(t Target) (uint64, bool) {
	if t == nil {
		return 0, false
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	for _, br := range bp.targets {
		if flow.Same(br.target, t) {
			return 0, false
		}
	}
	bp.nextID++
	bp.targets = append(bp.targets, branch{id: bp.nextID, target: t})
	return bp.nextID, true
}

// Remove detaches t. Returns ErrTargetNotFound if t is not attached.
func (bp *Branchpoint) Remove(t Target) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	for i, br := range bp.targets {
		if flow.Same(br.target, t) {
			bp.targets = append(bp.targets[:i:i], bp.targets[i+1:]...)
			return nil
		}
	}
	return ErrTargetNotFound
}

// Has reports whether t is attached.
func (bp *Branchpoint) Has(t Target) bool {
	bp.mu.RLock()
	defer bp.mu.RUnlock()

	for _, br := range bp.targets {
		if flow.Same(br.target, t) {
			return true
		}
	}
	return false
}

// Len returns the number of attached targets.
func (bp *Branchpoint) Len() int {
	bp.mu.RLock()
	defer bp.mu.RUnlock()
	return len(bp.targets)
}

// Targets returns a snapshot of the attached targets.
func (bp *Branchpoint) Targets() []Target {
	bp.mu.RLock()
	defer bp.mu.RUnlock()

	out := make([]Target, len(bp.targets))
	for i, br := range bp.targets {
		out[i] = br.target
	}
	return out
}

// Send delivers b to every target. A failing target does not stop
// delivery to the others; all failures are returned joined.
func (bp *Branchpoint) Send(ctx context.Context, b *record.Batch) error {
	var errs []error
	for _, t := range bp.Targets() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := t.Send(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
