package pipeline

import (
	"context"
	"sync"

	"github.com/dshills/stormdrain/internal/record"
)

// Collector is a terminal stage that keeps every batch it receives.
type Collector struct {
	mu      sync.Mutex
	batches []*record.Batch
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Send records b.
func (c *Collector) Send(_ context.Context, b *record.Batch) error {
	c.mu.Lock()
	c.batches = append(c.batches, b)
	c.mu.Unlock()
	return nil
}

// Batches returns the received batches in arrival order.
func (c *Collector) Batches() []*record.Batch {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*record.Batch, len(c.batches))
	copy(out, c.batches)
	return out
}

// Last returns the most recent batch, or nil.
func (c *Collector) Last() *record.Batch {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.batches) == 0 {
		return nil
	}
	return c.batches[len(c.batches)-1]
}

// Len returns the number of received batches.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

// Reset drops all received batches.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.batches = nil
	c.mu.Unlock()
}
