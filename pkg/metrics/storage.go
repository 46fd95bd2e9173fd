package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics records asset store round trips per backend and operation.
type StorageMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewStorageMetrics registers the asset store metrics on the provided registerer.
func NewStorageMetrics(reg prometheus.Registerer) *StorageMetrics {
	if reg == nil {
		return &StorageMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asset_store_request_duration_seconds",
		Help:    "Duration of asset store requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "asset_store_request_success",
		Help: "Successful asset store requests.",
	}, []string{"backend", "op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "asset_store_request_failure",
		Help: "Failed asset store requests.",
	}, []string{"backend", "op"})
	reg.MustRegister(duration, success, failure)
	return &StorageMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// Observe records one request outcome.
func (s *StorageMetrics) Observe(backend, op string, took time.Duration, err error) {
	if s == nil || s.duration == nil {
		return
	}
	backend, op = normalizeLabel(backend), normalizeLabel(op)
	s.duration.WithLabelValues(backend, op).Observe(took.Seconds())
	if err != nil {
		s.failure.WithLabelValues(backend, op).Inc()
		return
	}
	s.success.WithLabelValues(backend, op).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
