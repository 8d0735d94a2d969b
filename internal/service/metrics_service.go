package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the gateway.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheLookups     *prometheus.CounterVec
	mergedRows       *prometheus.GaugeVec
	draftRows        *prometheus.GaugeVec
	droppedRecords   *prometheus.CounterVec
	degradedSources  *prometheus.CounterVec
	materializations *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	dbQueryDuration  *prometheus.HistogramVec
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

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of calls to the campus and student services",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "method", "status"})

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

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	mergedRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reconcile_rows",
		Help: "Rows produced by the last merge of a view",
	}, []string{"view"})

	draftRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reconcile_draft_rows",
		Help: "Draft rows produced by the last merge of a view",
	}, []string{"view"})

	droppedRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_dropped_records_total",
		Help: "Records dropped because no identity could be resolved",
	}, []string{"source"})

	degradedSources := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_degraded_sources_total",
		Help: "Non-critical sources replaced by an empty collection after a failure",
	}, []string{"source"})

	materializations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "materializations_total",
		Help: "Draft rows converted into upstream entities",
	}, []string{"collection", "outcome"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "absence_notifications_total",
		Help: "Absence notifications by final state",
	}, []string{"state"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, cacheLatency, cacheWrite, cacheLookups,
		mergedRows, draftRows, droppedRecords, degradedSources, materializations, notifications, dbQueryDuration, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		upstreamDuration: upstreamDuration,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheLookups:     cacheLookups,
		mergedRows:       mergedRows,
		draftRows:        draftRows,
		droppedRecords:   droppedRecords,
		degradedSources:  degradedSources,
		materializations: materializations,
		notifications:    notifications,
		dbQueryDuration:  dbQueryDuration,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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
}

// ObserveUpstream records the timing of a call to a backend service.
func (m *MetricsService) ObserveUpstream(service, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(service, method, fmt.Sprintf("%d", status)).Observe(duration.Seconds())
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveMerge records the shape of a merged view.
func (m *MetricsService) ObserveMerge(view string, rows, drafts int) {
	if m == nil {
		return
	}
	m.mergedRows.WithLabelValues(view).Set(float64(rows))
	m.draftRows.WithLabelValues(view).Set(float64(drafts))
}

// RecordDroppedRecord counts a record discarded for lack of identity.
func (m *MetricsService) RecordDroppedRecord(source string) {
	if m == nil {
		return
	}
	m.droppedRecords.WithLabelValues(source).Inc()
}

// RecordDegradedSource counts a non-critical source that failed.
func (m *MetricsService) RecordDegradedSource(source string) {
	if m == nil {
		return
	}
	m.degradedSources.WithLabelValues(source).Inc()
}

// RecordMaterialization counts a draft conversion attempt by outcome.
func (m *MetricsService) RecordMaterialization(collection, outcome string) {
	if m == nil {
		return
	}
	m.materializations.WithLabelValues(collection, outcome).Inc()
}

// RecordNotification counts an absence notification reaching a final state.
func (m *MetricsService) RecordNotification(state string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(state).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}
