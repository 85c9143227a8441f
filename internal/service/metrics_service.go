package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/academic-marks-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and keeps counters for the JSON snapshot.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	importsTotal    *prometheus.CounterVec
	importDuration  prometheus.Observer
	rowsParsed      prometheus.Counter
	studentsTouched prometheus.Counter
	storeFailures   prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	importOK             uint64
	importFailed         uint64
	rowsParsedCount      uint64
	studentsCount        uint64
	storeFailureCount    uint64
}

// NewMetricsService registers the collectors on a private registry.
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
		Name:    "analysis_cache_latency_seconds",
		Help:    "Latency for analysis cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "analysis_cache_write_seconds",
		Help:    "Latency for analysis cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "analysis_cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_cache_hits_total",
		Help: "Total analysis cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "analysis_cache_misses_total",
		Help: "Total analysis cache misses",
	})

	importsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marks_imports_total",
		Help: "Spreadsheet imports by outcome",
	}, []string{"outcome"})

	importDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "marks_import_duration_seconds",
		Help:    "Duration of spreadsheet imports from parse to last ledger write",
		Buckets: prometheus.DefBuckets,
	})

	rowsParsed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marks_rows_parsed_total",
		Help: "Accepted spreadsheet rows",
	})

	studentsTouched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marks_students_affected_total",
		Help: "Distinct students written per import, summed",
	})

	storeFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_store_failures_total",
		Help: "Ledger store operations that failed during imports",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		importsTotal, importDuration, rowsParsed, studentsTouched, storeFailures, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		importsTotal:    importsTotal,
		importDuration:  importDuration,
		rowsParsed:      rowsParsed,
		studentsTouched: studentsTouched,
		storeFailures:   storeFailures,
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

// ObserveHTTPRequest records request metrics.
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

// RecordCacheOperation records a cache hit or miss and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordImport records the outcome of one import. summary may be partial on failure.
func (m *MetricsService) RecordImport(summary *models.ImportSummary, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.importDuration.Observe(duration.Seconds())
	if err != nil {
		m.importsTotal.WithLabelValues("failed").Inc()
		atomic.AddUint64(&m.importFailed, 1)
	} else {
		m.importsTotal.WithLabelValues("succeeded").Inc()
		atomic.AddUint64(&m.importOK, 1)
	}
	if summary == nil {
		return
	}
	m.rowsParsed.Add(float64(summary.RowsParsed))
	m.studentsTouched.Add(float64(summary.StudentsAffected))
	atomic.AddUint64(&m.rowsParsedCount, uint64(summary.RowsParsed))
	atomic.AddUint64(&m.studentsCount, uint64(summary.StudentsAffected))
}

// RecordStoreFailure counts a ledger store failure.
func (m *MetricsService) RecordStoreFailure() {
	if m == nil {
		return
	}
	m.storeFailures.Inc()
	atomic.AddUint64(&m.storeFailureCount, 1)
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if hits+misses > 0 {
		cacheRatio = float64(hits) / float64(hits+misses)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		ImportsSucceeded:         atomic.LoadUint64(&m.importOK),
		ImportsFailed:            atomic.LoadUint64(&m.importFailed),
		RowsParsed:               atomic.LoadUint64(&m.rowsParsedCount),
		StudentsAffected:         atomic.LoadUint64(&m.studentsCount),
		StoreFailures:            atomic.LoadUint64(&m.storeFailureCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
