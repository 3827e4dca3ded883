package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Query pipeline metrics
	QueriesTotal         *prometheus.CounterVec
	QueryDurationSeconds *prometheus.HistogramVec

	// Retrieval metrics
	RetrievalDurationSeconds *prometheus.HistogramVec
	RetrievalCandidates      prometheus.Histogram
	RetrievalDegradedTotal   *prometheus.CounterVec

	// Embedding metrics
	EmbeddingRequestsTotal   *prometheus.CounterVec
	EmbeddingDurationSeconds *prometheus.HistogramVec

	// Catalog metrics
	CatalogCourses      prometheus.Gauge
	CatalogSkippedTotal *prometheus.CounterVec
	CatalogReloadsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec

	// Warmup metrics
	WarmupTasksTotal *prometheus.CounterVec
	WarmupDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Query pipeline metrics
		QueriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_queries_total",
				Help: "Total number of advisor queries by intent and status",
			},
			[]string{"intent", "status"}, // status: success, error, degraded
		),

		QueryDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_query_duration_seconds",
				Help:    "End-to-end query processing duration in seconds by intent",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"intent"}, // intent: lookup, compare, recommend, requirement, general
		),

		// Retrieval metrics
		RetrievalDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_retrieval_duration_seconds",
				Help:    "Retrieval duration in seconds by stage",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"stage"}, // stage: lexical, semantic, fused
		),

		RetrievalCandidates: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_retrieval_candidates",
				Help:    "Number of candidates surviving fusion and the similarity floor",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
		),

		RetrievalDegradedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_retrieval_degraded_total",
				Help: "Retrievals that fell back to a single signal, by failed side",
			},
			[]string{"side"}, // side: lexical, semantic
		),

		// Embedding metrics
		EmbeddingRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_embedding_requests_total",
				Help: "Total embedding API requests by provider and status",
			},
			[]string{"provider", "status"}, // provider: openai, gemini
		),

		EmbeddingDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_embedding_duration_seconds",
				Help:    "Embedding API request duration in seconds by provider",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"provider"},
		),

		// Catalog metrics
		CatalogCourses: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "advisor_catalog_courses",
				Help: "Number of course records in the active catalog store",
			},
		),

		CatalogSkippedTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_catalog_skipped_total",
				Help: "Malformed course records skipped during catalog builds by reason",
			},
			[]string{"reason"}, // reason: missing_code, missing_title, duplicate_code
		),

		CatalogReloadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_catalog_reloads_total",
				Help: "Catalog store reloads by trigger and status",
			},
			[]string{"trigger", "status"}, // trigger: startup, snapshot, manual
		),

		// HTTP metrics
		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: client_error, server_error, timeout
		),

		// Rate limiter metrics
		RateLimiterWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "advisor_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5}, // 1ms to 5s
			},
			[]string{"limiter_type"}, // limiter_type: embedding, chat
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"},
		),

		// Warmup metrics
		WarmupTasksTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_warmup_tasks_total",
				Help: "Total number of warmup tasks by task and status",
			},
			[]string{"task", "status"}, // status: success, error
		),

		WarmupDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_warmup_duration_seconds",
				Help:    "Total duration of warmup process",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // 1s to 10min
			},
		),
	}

	return m
}

// RecordQuery records a processed advisor query with status
func (m *Metrics) RecordQuery(intent, status string, duration float64) {
	m.QueriesTotal.WithLabelValues(intent, status).Inc()
	m.QueryDurationSeconds.WithLabelValues(intent).Observe(duration)
}

// RecordRetrievalStage records the duration of one retrieval stage
func (m *Metrics) RecordRetrievalStage(stage string, duration float64) {
	m.RetrievalDurationSeconds.WithLabelValues(stage).Observe(duration)
}

// RecordRetrievalResult records the surviving candidate count
func (m *Metrics) RecordRetrievalResult(candidates int) {
	m.RetrievalCandidates.Observe(float64(candidates))
}

// RecordRetrievalDegraded records a retrieval that lost one signal
func (m *Metrics) RecordRetrievalDegraded(side string) {
	m.RetrievalDegradedTotal.WithLabelValues(side).Inc()
}

// RecordEmbeddingRequest records an embedding API request with status
func (m *Metrics) RecordEmbeddingRequest(provider, status string, duration float64) {
	m.EmbeddingRequestsTotal.WithLabelValues(provider, status).Inc()
	m.EmbeddingDurationSeconds.WithLabelValues(provider).Observe(duration)
}

// RecordCatalogSkipped records a malformed record skipped during a build
func (m *Metrics) RecordCatalogSkipped(reason string) {
	m.CatalogSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordCatalogReload records a catalog store reload
func (m *Metrics) RecordCatalogReload(trigger, status string, courses int) {
	m.CatalogReloadsTotal.WithLabelValues(trigger, status).Inc()
	if status == "success" {
		m.CatalogCourses.Set(float64(courses))
	}
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// RecordWarmupTask records a warmup task completion
func (m *Metrics) RecordWarmupTask(task, status string) {
	m.WarmupTasksTotal.WithLabelValues(task, status).Inc()
}

// RecordWarmupDuration records total warmup duration
func (m *Metrics) RecordWarmupDuration(duration float64) {
	m.WarmupDuration.Observe(duration)
}
