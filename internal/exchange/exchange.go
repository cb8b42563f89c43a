package exchange

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/stormdrain/internal/exchange/dispatch"
	"github.com/dshills/stormdrain/internal/metrics"
)

// Exchange is a registry of named topics.
type Exchange struct {
	mu     sync.Mutex
	topics map[Name]*Topic

	config   config
	executor *dispatch.Executor
}

type config struct {
	logger   *zap.Logger
	metrics  *metrics.Metrics
	failFast bool
}

// Option configures an Exchange.
type Option func(*config)

// WithLogger sets the logger used to report subscriber failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithFailFast makes Send stop at the first failing subscriber instead of
// delivering to everyone and reporting all failures.
func WithFailFast() Option {
	return func(c *config) {
		c.failFast = true
	}
}

// New creates an empty Exchange.
func New(opts ...Option) *Exchange {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	x := &Exchange{
		topics: make(map[Name]*Topic),
		config: cfg,
	}
	x.executor = dispatch.NewExecutor(dispatch.WithPanicHandler(func(msg any, v any, stack []byte) {
		x.config.logger.Error("subscriber panic",
			zap.Any("panic", v),
			zap.ByteString("stack", stack),
		)
	}))
	return x
}

// Topic returns the topic with the given name, creating it on first use.
func (x *Exchange) Topic(name Name) *Topic {
	x.mu.Lock()
	defer x.mu.Unlock()

	t, ok := x.topics[name]
	if !ok {
		t = newTopic(x, name)
		x.topics[name] = t
	}
	return t
}

// Lookup returns an existing topic without creating it.
func (x *Exchange) Lookup(name Name) (*Topic, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	t, ok := x.topics[name]
	return t, ok
}

// Topics returns the names of all created topics, sorted.
func (x *Exchange) Topics() []Name {
	x.mu.Lock()
	defer x.mu.Unlock()

	names := make([]Name, 0, len(x.topics))
	for n := range x.topics {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Stats aggregates statistics over all topics.
func (x *Exchange) Stats() Stats {
	x.mu.Lock()
	topics := make([]*Topic, 0, len(x.topics))
	for _, t := range x.topics {
		topics = append(topics, t)
	}
	x.mu.Unlock()

	var total Stats
	for _, t := range topics {
		s := t.Stats()
		total.MessagesSent += s.MessagesSent
		total.Delivered += s.Delivered
		total.Failed += s.Failed
		total.Panicked += s.Panicked
		total.Subscribers += s.Subscribers
	}
	return total
}

// Stats contains delivery statistics.
type Stats struct {
	// MessagesSent is the number of Send calls.
	MessagesSent uint64

	// Delivered is the number of successful subscriber calls.
	Delivered uint64

	// Failed is the number of subscriber calls that returned an error.
	Failed uint64

	// Panicked is the number of subscriber calls that panicked.
	Panicked uint64

	// Subscribers is the current number of attached receivers.
	Subscribers int
}
