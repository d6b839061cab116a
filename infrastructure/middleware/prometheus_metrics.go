// Package middleware provides cross-cutting concerns for the election
// engine: Prometheus metrics, unit tracing and HTTP rate limiting.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-schulze/internal/ports"
)

// Metric names understood by PrometheusMetrics. Other names fall through
// to the generic operation counter and size gauge.
const (
	MetricEvaluations   = "evaluations_total"
	MetricCacheRequests = "cache_requests_total"
	MetricCandidates    = "candidates"
	MetricBallots       = "ballots"
	MetricTiers         = "tiers"
)

// PrometheusMetrics implements ports.MetricsCollector with Prometheus
// vectors registered on a caller-supplied registerer. Election names come
// from clients, so no vector is labelled by them; unit labels carry the
// registered unit type.
type PrometheusMetrics struct {
	executionLatency *prometheus.HistogramVec
	evaluations      *prometheus.CounterVec
	cacheRequests    *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	electionSize     *prometheus.GaugeVec
	sizeHistogram    *prometheus.HistogramVec
}

// NewPrometheusMetrics creates the collectors and registers them on reg.
// A nil reg registers on the global default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schulze_execution_duration_seconds",
				Help:    "Execution time of election operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "unit"},
		),
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schulze_evaluations_total",
				Help: "Number of election evaluations by outcome.",
			},
			[]string{"status"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schulze_cache_requests_total",
				Help: "Result cache lookups by store and result.",
			},
			[]string{"store", "result"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schulze_operations_total",
				Help: "Other counted operations.",
			},
			[]string{"operation", "status", "unit"},
		),
		electionSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "schulze_election_size",
				Help: "Size of the most recently evaluated election.",
			},
			[]string{"metric"},
		),
		sizeHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schulze_election_size_distribution",
				Help:    "Distribution of election sizes.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records duration under the operation and the "unit" label.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, label(labels, "unit")).Observe(duration.Seconds())
}

// RecordCounter increments the counter matching metric.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case MetricEvaluations:
		pm.evaluations.WithLabelValues(label(labels, "status")).Add(value)
	case MetricCacheRequests:
		pm.cacheRequests.WithLabelValues(label(labels, "store"), label(labels, "result")).Add(value)
	default:
		status := labels["status"]
		if status == "" {
			status = "success"
		}
		pm.operationCounter.WithLabelValues(metric, status, label(labels, "unit")).Add(value)
	}
}

// RecordGauge sets the election size gauge for metric.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	pm.electionSize.WithLabelValues(metric).Set(value)
}

// RecordHistogram observes value in the size distribution for metric.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, _ map[string]string,
) {
	pm.sizeHistogram.WithLabelValues(metric).Observe(value)
}

// label returns labels[key], or "unknown" when it is missing or empty.
func label(labels map[string]string, key string) string {
	if v := labels[key]; v != "" {
		return v
	}
	return "unknown"
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
