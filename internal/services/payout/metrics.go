package payout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector records payout processing metrics.
type MetricsCollector interface {
	RecordInitiated(mode string)
	RecordTransition(from, to, source string)
	RecordError(operation, kind string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInitiated(string)                  {}
func (NoopMetricsCollector) RecordTransition(string, string, string) {}
func (NoopMetricsCollector) RecordError(string, string)              {}

type prometheusCollector struct {
	initiated   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// NewPrometheusCollector registers and returns a prometheus-backed
// collector.
func NewPrometheusCollector() MetricsCollector {
	return &prometheusCollector{
		initiated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "paydesk_payouts_initiated_total",
			Help: "Payout submissions by settlement mode.",
		}, []string{"mode"}),
		transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "paydesk_payout_transitions_total",
			Help: "Applied state transitions by edge and source.",
		}, []string{"from", "to", "source"}),
		errors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "paydesk_payout_errors_total",
			Help: "Payout processing errors by operation and kind.",
		}, []string{"operation", "kind"}),
	}
}

func (c *prometheusCollector) RecordInitiated(mode string) {
	c.initiated.WithLabelValues(mode).Inc()
}

func (c *prometheusCollector) RecordTransition(from, to, source string) {
	c.transitions.WithLabelValues(from, to, source).Inc()
}

func (c *prometheusCollector) RecordError(operation, kind string) {
	c.errors.WithLabelValues(operation, kind).Inc()
}
