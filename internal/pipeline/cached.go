package pipeline

import (
	"context"
	"sync"

	"github.com/dshills/stormdrain/internal/metrics"
	"github.com/dshills/stormdrain/internal/record"
)

// DefaultCacheCapacity is the number of batches a CachedSegment keeps
// unless configured otherwise.
const DefaultCacheCapacity = 1

// CachedSegment remembers the most recent batches it received and can
// replay them to its target on demand.
//
// By default it only records: nothing reaches the target until
// ResendLast is called. With WithForward each batch is also passed
// straight through, and is cached only if the target accepted it.
type CachedSegment struct {
	Segment

	mu          sync.Mutex
	cache       []*record.Batch
	cap         int
	passthrough bool
	metrics     *metrics.Metrics
}

// CacheOption configures a CachedSegment.
type CacheOption func(*CachedSegment) error

// WithCapacity sets how many batches are kept.
func WithCapacity(n int) CacheOption {
	return func(c *CachedSegment) error {
		if n < 1 {
			return ErrInvalidCapacity
		}
		c.cap = n
		return nil
	}
}

// WithForward passes every batch to the target as it arrives.
func WithForward() CacheOption {
	return func(c *CachedSegment) error {
		c.passthrough = true
		return nil
	}
}

// WithCacheMetrics counts replayed batches.
func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachedSegment) error {
		c.metrics = m
		return nil
	}
}

// NewCachedSegment creates a cache in front of target.
func NewCachedSegment(target Target, opts ...CacheOption) (*CachedSegment, error) {
	c := &CachedSegment{
		Segment: Segment{target: target},
		cap:     DefaultCacheCapacity,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.cache = make([]*record.Batch, 0, c.cap)
	return c, nil
}

// Send records b, forwarding it first when WithForward is set.
func (c *CachedSegment) Send(ctx context.Context, b *record.Batch) error {
	if c.passthrough {
		if err := c.forward(ctx, b); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) == c.cap {
		copy(c.cache, c.cache[1:])
		c.cache = c.cache[:c.cap-1]
	}
	c.cache = append(c.cache, b)
	return nil
}

// ResendLast sends up to n of the most recent batches to the target,
// oldest first. Fewer are sent if fewer are cached. Replay stops at the
// first error.
func (c *CachedSegment) ResendLast(ctx context.Context, n int) error {
	batches := c.Last(n)
	if len(batches) == 0 {
		return nil
	}

	for i, b := range batches {
		if err := c.forward(ctx, b); err != nil {
			c.metrics.RecordResend(i)
			return err
		}
	}
	c.metrics.RecordResend(len(batches))
	return nil
}

// Last returns up to n of the most recent batches, oldest first.
func (c *CachedSegment) Last(n int) []*record.Batch {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > len(c.cache) {
		n = len(c.cache)
	}
	out := make([]*record.Batch, n)
	copy(out, c.cache[len(c.cache)-n:])
	return out
}

// Len returns the number of cached batches.
func (c *CachedSegment) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Cap returns the cache capacity.
func (c *CachedSegment) Cap() int {
	return c.cap
}

// Clear drops all cached batches.
func (c *CachedSegment) Clear() {
	c.mu.Lock()
	c.cache = c.cache[:0]
	c.mu.Unlock()
}
