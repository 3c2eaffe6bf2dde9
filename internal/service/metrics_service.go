package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/academic-help-api/internal/models"
)

// MetricsService owns the Prometheus registry and keeps running totals for the admin summary.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	storeDuration   *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	notifications   *prometheus.CounterVec

	cacheHitCount      uint64
	cacheMissCount     uint64
	requestCount       uint64
	requestNanos       uint64
	storeOpCount       uint64
	storeOpNanos       uint64
	notifyDelivered    uint64
	notifyFailed       uint64
	transitionMu       sync.Mutex
	transitionCounters map[string]uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache writes",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "request_store_operation_seconds",
			Help:    "Duration of request store operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "request_status_transitions_total",
			Help: "Applied request status transitions",
		}, []string{"from", "to"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_emitted_total",
			Help: "Notification deliveries by outcome",
		}, []string{"outcome"}),
		transitionCounters: make(map[string]uint64),
	}

	registry.MustRegister(
		m.requestDuration, m.requestTotal, m.cacheLatency, m.cacheWrite, m.cacheHitRatio,
		m.cacheLookups, m.storeDuration, m.transitions, m.notifications,
		collectors.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestNanos, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveStoreOperation records how long a request store operation took.
func (m *MetricsService) ObserveStoreOperation(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.storeDuration.WithLabelValues(operation, outcome).Observe(duration.Seconds())
	atomic.AddUint64(&m.storeOpCount, 1)
	atomic.AddUint64(&m.storeOpNanos, uint64(duration.Nanoseconds()))
}

// RecordTransition counts an applied status change.
func (m *MetricsService) RecordTransition(from, to models.RequestStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
	m.transitionMu.Lock()
	m.transitionCounters[string(from)+"->"+string(to)]++
	m.transitionMu.Unlock()
}

// RecordNotification counts a notification delivery attempt outcome.
func (m *MetricsService) RecordNotification(delivered bool) {
	if m == nil {
		return
	}
	if delivered {
		m.notifications.WithLabelValues("delivered").Inc()
		atomic.AddUint64(&m.notifyDelivered, 1)
		return
	}
	m.notifications.WithLabelValues("failed").Inc()
	atomic.AddUint64(&m.notifyFailed, 1)
}

// Snapshot returns aggregated metrics for the admin summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	storeOps := atomic.LoadUint64(&m.storeOpCount)

	snapshot := models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMs(atomic.LoadUint64(&m.requestNanos), requests),
		CacheHits:                hits,
		CacheMisses:              misses,
		StoreOperations:          storeOps,
		AverageStoreOperationMs:  averageMs(atomic.LoadUint64(&m.storeOpNanos), storeOps),
		NotificationsDelivered:   atomic.LoadUint64(&m.notifyDelivered),
		NotificationsFailed:      atomic.LoadUint64(&m.notifyFailed),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
		Transitions:              make(map[string]uint64),
	}
	if hits+misses > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	m.transitionMu.Lock()
	for k, v := range m.transitionCounters {
		snapshot.Transitions[k] = v
	}
	m.transitionMu.Unlock()
	return snapshot
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
