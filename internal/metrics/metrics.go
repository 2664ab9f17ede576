package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Question metrics
	QuestionsTotal          *prometheus.CounterVec
	QuestionDurationSeconds *prometheus.HistogramVec
	FollowUpTotal           *prometheus.CounterVec

	// Knowledge store metrics
	StoreQueriesTotal    *prometheus.CounterVec
	StoreDurationSeconds *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Session metrics
	ActiveSessions prometheus.Gauge

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		QuestionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scholarqa_questions_total",
				Help: "Total number of questions by intent and status",
			},
			[]string{"intent", "status"}, // status: answered, not_found, ambiguous, no_match, error
		),

		QuestionDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scholarqa_question_duration_seconds",
				Help:    "End-to-end question processing duration in seconds by intent",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"intent"},
		),

		FollowUpTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scholarqa_follow_up_total",
				Help: "Total number of follow-up questions by resolution outcome",
			},
			[]string{"outcome"}, // outcome: resolved, expired, unmatched
		),

		StoreQueriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scholarqa_store_queries_total",
				Help: "Total number of knowledge store queries by operation and status",
			},
			[]string{"operation", "status"}, // status: success, error, empty
		),

		StoreDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scholarqa_store_duration_seconds",
				Help:    "Knowledge store query duration in seconds by operation",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"operation"},
		),

		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scholarqa_cache_hits_total",
				Help: "Total number of query-result cache hits by operation",
			},
			[]string{"operation"},
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scholarqa_cache_misses_total",
				Help: "Total number of query-result cache misses by operation",
			},
			[]string{"operation"},
		),

		ActiveSessions: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "scholarqa_active_sessions",
				Help: "Number of dialog sessions currently tracked",
			},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scholarqa_http_errors_total",
				Help: "Total HTTP errors by type",
			},
			[]string{"error_type"}, // error_type: timeout, rate_limit, bad_request, internal
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "scholarqa_rate_limiter_dropped_total",
				Help: "Total requests rejected by the per-session rate limiter",
			},
			[]string{"scope"},
		),
	}

	return m
}

// RecordQuestion records a processed question with its intent and outcome.
func (m *Metrics) RecordQuestion(intent, status string, seconds float64) {
	if m == nil {
		return
	}
	m.QuestionsTotal.WithLabelValues(intent, status).Inc()
	m.QuestionDurationSeconds.WithLabelValues(intent).Observe(seconds)
}

// RecordFollowUp records a follow-up resolution outcome.
func (m *Metrics) RecordFollowUp(outcome string) {
	if m == nil {
		return
	}
	m.FollowUpTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreQuery records a knowledge store query.
func (m *Metrics) RecordStoreQuery(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.StoreQueriesTotal.WithLabelValues(operation, status).Inc()
	m.StoreDurationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordCacheHit records a cache hit for an operation.
func (m *Metrics) RecordCacheHit(operation string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(operation).Inc()
}

// RecordCacheMiss records a cache miss for an operation.
func (m *Metrics) RecordCacheMiss(operation string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(operation).Inc()
}

// SetActiveSessions updates the session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// RecordHTTPError records an HTTP-level error.
func (m *Metrics) RecordHTTPError(errorType string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordRateLimitDrop records a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimitDrop(scope string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(scope).Inc()
}
