// Package metrics provides Prometheus instrumentation for the exchange and
// the pipeline stages.
//
// A Metrics value is registered against an explicit Registerer so that
// several exchanges (or several tests) can live in one process:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	xchg := exchange.New(exchange.WithMetrics(m))
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "stormdrain"

// Delivery outcomes used as the "status" label.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusPanic     = "panic"
	StatusSkipped   = "skipped"
	StatusReentrant = "reentrant"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	// Exchange metrics
	MessagesSent     *prometheus.CounterVec
	Deliveries       *prometheus.CounterVec
	DeliveryDuration *prometheus.HistogramVec
	Subscribers      *prometheus.GaugeVec

	// Pipeline metrics
	RowsIn      *prometheus.CounterVec
	RowsOut     *prometheus.CounterVec
	CacheResend prometheus.Counter

	// Coordinator metrics
	Interactions *prometheus.CounterVec
	Reflows      prometheus.Counter
}

// New creates and registers all collectors on reg.
// If reg is nil the default Prometheus registerer is used.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		MessagesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "exchange_messages_total",
				Help:      "Total number of messages sent on a topic",
			},
			[]string{"topic"},
		),
		Deliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "exchange_deliveries_total",
				Help:      "Total number of per-subscriber deliveries by outcome",
			},
			[]string{"topic", "status"},
		),
		DeliveryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "exchange_delivery_duration_seconds",
				Help:      "Time spent inside a single subscriber",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"topic"},
		),
		Subscribers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "exchange_subscribers",
				Help:      "Current number of subscribers per topic",
			},
			[]string{"topic"},
		),
		RowsIn: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pipeline_rows_in_total",
				Help:      "Rows received by a pipeline stage",
			},
			[]string{"stage"},
		),
		RowsOut: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pipeline_rows_out_total",
				Help:      "Rows forwarded by a pipeline stage",
			},
			[]string{"stage"},
		),
		CacheResend: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pipeline_cache_resends_total",
				Help:      "Batches replayed from a cached segment",
			},
		),
		Interactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "linked_interactions_total",
				Help:      "Interaction-complete notifications handled by outcome",
			},
			[]string{"status"},
		),
		Reflows: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "linked_reflows_total",
				Help:      "Completed bounds-updated/reflow notification sequences",
			},
		),
	}
}

// RecordSend counts one message published on topic.
func (m *Metrics) RecordSend(topic string) {
	if m == nil {
		return
	}
	m.MessagesSent.WithLabelValues(topic).Inc()
}

// RecordDelivery records the outcome and duration of one subscriber call.
func (m *Metrics) RecordDelivery(topic, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(topic, status).Inc()
	m.DeliveryDuration.WithLabelValues(topic).Observe(d.Seconds())
}

// SetSubscribers records the subscriber count of a topic.
func (m *Metrics) SetSubscribers(topic string, n int) {
	if m == nil {
		return
	}
	m.Subscribers.WithLabelValues(topic).Set(float64(n))
}

// RecordRows records rows in and out of a filtering stage.
func (m *Metrics) RecordRows(stage string, in, out int) {
	if m == nil {
		return
	}
	m.RowsIn.WithLabelValues(stage).Add(float64(in))
	m.RowsOut.WithLabelValues(stage).Add(float64(out))
}

// RecordResend counts replayed batches.
func (m *Metrics) RecordResend(n int) {
	if m == nil {
		return
	}
	m.CacheResend.Add(float64(n))
}

// RecordInteraction counts one interaction notification by outcome.
func (m *Metrics) RecordInteraction(status string) {
	if m == nil {
		return
	}
	m.Interactions.WithLabelValues(status).Inc()
}

// RecordReflow counts one completed reflow sequence.
func (m *Metrics) RecordReflow() {
	if m == nil {
		return
	}
	m.Reflows.Inc()
}
