package pipeline

import (
	"context"
	"sync"

	"github.com/dshills/stormdrain/internal/flow"
	"github.com/dshills/stormdrain/internal/record"
)

// Target is anything that accepts record batches.
type Target = flow.Receiver[*record.Batch]

// TargetFunc adapts a function to a Target.
type TargetFunc = flow.ReceiverFunc[*record.Batch]

// Segment forwards every batch unchanged to a single target. It is also
// the base for single-target stages that need to swap their target at
// runtime.
type Segment struct {
	mu     sync.RWMutex
	target Target
}

// NewSegment creates a passthrough segment.
func NewSegment(target Target) *Segment {
	return &Segment{target: target}
}

// Target returns the current target.
func (s *Segment) Target() Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

// SetTarget replaces the target. It is safe to call between sends.
func (s *Segment) SetTarget(t Target) {
	s.mu.Lock()
	s.target = t
	s.mu.Unlock()
}

// Send forwards b to the target.
func (s *Segment) Send(ctx context.Context, b *record.Batch) error {
	return s.forward(ctx, b)
}

func (s *Segment) forward(ctx context.Context, b *record.Batch) error {
	t := s.Target()
	if t == nil {
		return ErrNoTarget
	}
	return t.Send(ctx, b)
}
