package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the service.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	batchStudents   prometheus.Histogram
	batchTotal      prometheus.Counter
	rankFailures    prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers the service's Prometheus collectors.
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

	batchStudents := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "grade_batch_students",
		Help:    "Number of students per submitted grade batch",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
	})

	batchTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grade_batches_total",
		Help: "Total number of committed grade batches",
	})

	rankFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grade_rank_recompute_failures_total",
		Help: "Total number of failed rank recomputations",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, batchStudents, batchTotal, rankFailures, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		batchStudents:   batchStudents,
		batchTotal:      batchTotal,
		rankFailures:    rankFailures,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
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
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveGradeBatch records one committed batch and its size.
func (m *MetricsService) ObserveGradeBatch(students int) {
	if m == nil {
		return
	}
	m.batchTotal.Inc()
	m.batchStudents.Observe(float64(students))
}

// ObserveRankRecomputeFailure counts a failed rank recomputation.
func (m *MetricsService) ObserveRankRecomputeFailure() {
	if m == nil {
		return
	}
	m.rankFailures.Inc()
}

// ObserveCacheLookup counts grade book cache hits and misses.
func (m *MetricsService) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
