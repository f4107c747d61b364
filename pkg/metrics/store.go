package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache outcomes recorded by the schema resolver.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheFetch = "fetch"
	CacheError = "error"
)

// StoreMetrics records backend store traffic and metadata cache behavior.
type StoreMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

// NewStoreMetrics registers the store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_store_requests_total",
		Help: "Backend store HTTP requests by operation and status.",
	}, []string{"op", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_store_request_duration_seconds",
		Help:    "Duration of backend store HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_store_retries_total",
		Help: "Backend store request retries by operation and reason.",
	}, []string{"op", "reason"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_schema_cache_total",
		Help: "Schema metadata cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(requests, duration, retries, cache)
	return &StoreMetrics{
		requests: requests,
		duration: duration,
		retries:  retries,
		cache:    cache,
	}
}

// ObserveRequest records one HTTP exchange. A zero status means no response arrived.
func (m *StoreMetrics) ObserveRequest(op string, status int, elapsed time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	label := "network_error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(normalizeLabel(op), label).Inc()
	m.duration.WithLabelValues(normalizeLabel(op)).Observe(elapsed.Seconds())
}

// IncRetry counts a retry scheduled for op.
func (m *StoreMetrics) IncRetry(op, reason string) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.WithLabelValues(normalizeLabel(op), normalizeLabel(reason)).Inc()
}

// IncCache counts a metadata cache outcome.
func (m *StoreMetrics) IncCache(result string) {
	if m == nil || m.cache == nil {
		return
	}
	m.cache.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
