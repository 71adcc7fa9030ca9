package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/barangay-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	cacheLatency        prometheus.Observer
	cacheWrite          prometheus.Observer
	cacheHitRatio       prometheus.Gauge
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	complaintsCreated   *prometheus.CounterVec
	complaintTransition *prometheus.CounterVec
	captainResponses    *prometheus.CounterVec
	llmLatency          *prometheus.HistogramVec
	notificationJobs    *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	transitionCount      uint64
	llmResponseCount     uint64
	ruleResponseCount    uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	complaintsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaints_created_total",
		Help: "Complaints filed, split by anonymity",
	}, []string{"anonymous"})

	complaintTransition := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_transitions_total",
		Help: "Applied complaint status transitions",
	}, []string{"from", "to"})

	captainResponses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "captain_responses_total",
		Help: "Virtual captain replies by responder and intent",
	}, []string{"source", "intent"})

	llmLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "captain_llm_latency_seconds",
		Help:    "Latency of language model calls",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"provider", "outcome"})

	notificationJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_jobs_total",
		Help: "Notification jobs processed by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		complaintsCreated, complaintTransition, captainResponses, llmLatency, notificationJobs, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHitRatio:       cacheHitRatio,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		complaintsCreated:   complaintsCreated,
		complaintTransition: complaintTransition,
		captainResponses:    captainResponses,
		llmLatency:          llmLatency,
		notificationJobs:    notificationJobs,
	}
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordComplaintCreated counts a newly filed complaint.
func (m *MetricsService) RecordComplaintCreated(anonymous bool) {
	if m == nil {
		return
	}
	m.complaintsCreated.WithLabelValues(fmt.Sprintf("%t", anonymous)).Inc()
}

// RecordTransition counts an applied status change.
func (m *MetricsService) RecordTransition(from, to models.ComplaintStatus) {
	if m == nil {
		return
	}
	m.complaintTransition.WithLabelValues(string(from), string(to)).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// RecordCaptainResponse counts a captain reply.
func (m *MetricsService) RecordCaptainResponse(source models.ResponseSource, intent string) {
	if m == nil {
		return
	}
	m.captainResponses.WithLabelValues(string(source), intent).Inc()
	if source == models.ResponseSourceLLM {
		atomic.AddUint64(&m.llmResponseCount, 1)
	} else {
		atomic.AddUint64(&m.ruleResponseCount, 1)
	}
}

// ObserveLLMCall tracks provider latency. outcome is "ok" or "error".
func (m *MetricsService) ObserveLLMCall(provider, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(provider, outcome).Observe(duration.Seconds())
}

// RecordNotificationJob counts a processed notification job.
func (m *MetricsService) RecordNotificationJob(outcome string) {
	if m == nil {
		return
	}
	m.notificationJobs.WithLabelValues(outcome).Inc()
}

// Snapshot returns aggregated metrics suitable for the system metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{CaptainResponses: map[string]uint64{}}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ComplaintTransitions:     atomic.LoadUint64(&m.transitionCount),
		CaptainResponses: map[string]uint64{
			string(models.ResponseSourceLLM):       atomic.LoadUint64(&m.llmResponseCount),
			string(models.ResponseSourceRuleBased): atomic.LoadUint64(&m.ruleResponseCount),
		},
		Goroutines:  runtime.NumGoroutine(),
		GeneratedAt: time.Now().UTC(),
	}
}
