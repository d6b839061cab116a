package ports

import (
	"context"
	"time"
)

// CacheStore holds encoded evaluation outcomes keyed by election content
// hash. Implementations include an in-process LRU and Redis.
type CacheStore interface {
	// Get returns the stored bytes and true, or nil and false on a miss.
	// A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key. A zero expiration means no expiry.
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// Delete removes key. Deleting a missing key returns nil.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by this store.
	Clear(ctx context.Context) error
}

// MetricsCollector records operational metrics for evaluations.
// Implementations should integrate with Prometheus or a similar system.
type MetricsCollector interface {
	// RecordLatency records how long an operation took.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric such as cache hits.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram observes a value such as the candidate count.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
