// Package metrics defines the Prometheus metric collectors used across the
// pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPResponseSize     *prometheus.HistogramVec
	AbstractsIngested    prometheus.Counter
	AbstractsProcessed   *prometheus.CounterVec
	TokenizeDuration     prometheus.Histogram
	TokensPerAbstract    prometheus.Histogram
	OOVRatio             prometheus.Histogram
	VectorCacheHits      prometheus.Counter
	VectorCacheMisses    prometheus.Counter
	// VectorCacheBreaker is 0 closed, 1 open, 2 half-open.
	VectorCacheBreaker prometheus.Gauge
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
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
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "Size of HTTP response bodies in bytes.",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"method", "path"},
		),
		AbstractsIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "abstracts_ingested_total",
				Help: "Total abstracts accepted by the ingestion service.",
			},
		),
		AbstractsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abstracts_processed_total",
				Help: "Abstracts handled by the featurizer by outcome (featurized, skipped, failed).",
			},
			[]string{"outcome"},
		),
		TokenizeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tokenize_duration_seconds",
				Help:    "Time spent tokenizing one abstract.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		TokensPerAbstract: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tokens_per_abstract",
				Help:    "Number of filtered tokens per abstract.",
				Buckets: []float64{0, 10, 25, 50, 100, 200, 400, 800},
			},
		),
		OOVRatio: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vectorize_oov_ratio",
				Help:    "Fraction of an abstract's tokens missing from the vocabulary.",
				Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 0.75, 0.9, 1},
			},
		),
		VectorCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vector_cache_hits_total",
				Help: "Total number of document vector cache hits.",
			},
		),
		VectorCacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vector_cache_misses_total",
				Help: "Total number of document vector cache misses.",
			},
		),
		VectorCacheBreaker: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vector_cache_breaker_state",
				Help: "State of the Redis vector cache circuit breaker (0 closed, 1 open, 2 half-open).",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.HTTPResponseSize,
		m.AbstractsIngested,
		m.AbstractsProcessed,
		m.TokenizeDuration,
		m.TokensPerAbstract,
		m.OOVRatio,
		m.VectorCacheHits,
		m.VectorCacheMisses,
		m.VectorCacheBreaker,
	)

	return m
}

// Handler serves the metrics gathered from g in the Prometheus text format.
// Collection errors are logged and the remaining metrics are still served.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		ErrorHandling: promhttp.ContinueOnError,
	})
}
