// Package metrics defines the Prometheus metric collectors used across the
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	DocsIngestedTotal    prometheus.Counter
	ModelBuildsTotal     *prometheus.CounterVec
	ModelBuildDuration   prometheus.Histogram
	ModelDocuments       prometheus.Gauge
	ModelVocabulary      prometheus.Gauge
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by outcome (scored, zero_result, error).",
			},
			[]string{"outcome"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
		DocsIngestedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_ingested_total",
				Help: "Total documents accepted through the ingest endpoint.",
			},
		),
		ModelBuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "model_builds_total",
				Help: "Total model builds by status (ok, error).",
			},
			[]string{"status"},
		),
		ModelBuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "model_build_duration_seconds",
				Help:    "Wall time of a full model build in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		ModelDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "model_documents",
				Help: "Number of documents in the serving model.",
			},
		),
		ModelVocabulary: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "model_vocabulary_terms",
				Help: "Number of distinct terms in the serving model.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DocsIngestedTotal,
		m.ModelBuildsTotal,
		m.ModelBuildDuration,
		m.ModelDocuments,
		m.ModelVocabulary,
		m.CircuitBreakerState,
	)

	return m
}

// ObserveBuild records one model build outcome and refreshes the model
// size gauges.
func (m *Metrics) ObserveBuild(seconds float64, docs, vocab int, err error) {
	if err != nil {
		m.ModelBuildsTotal.WithLabelValues("error").Inc()
		return
	}
	m.ModelBuildsTotal.WithLabelValues("ok").Inc()
	m.ModelBuildDuration.Observe(seconds)
	m.ModelDocuments.Set(float64(docs))
	m.ModelVocabulary.Set(float64(vocab))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
