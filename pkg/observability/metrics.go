package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the search service
type Metrics struct {
	// Search metrics
	SearchRequestsTotal  *prometheus.CounterVec
	SearchDuration       *prometheus.HistogramVec
	SearchErrorsTotal    *prometheus.CounterVec
	SearchFallbacksTotal prometheus.Counter

	// Cache metrics
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter
	CacheWriteErrors   prometheus.Counter
	InvalidationsTotal *prometheus.CounterVec

	// Indexing metrics
	DocumentsIndexedTotal *prometheus.CounterVec
	IndexErrorsTotal      *prometheus.CounterVec
	ReindexDuration       prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		SearchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "globalsearch_requests_total",
				Help: "Total number of search requests",
			},
			[]string{"engine", "cached"},
		),
		SearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "globalsearch_request_duration_seconds",
				Help:    "Search request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"engine"},
		),
		SearchErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "globalsearch_errors_total",
				Help: "Total number of failed search requests",
			},
			[]string{"engine"},
		),
		SearchFallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "globalsearch_fallbacks_total",
				Help: "Total number of index-engine to relational fallbacks",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "globalsearch_cache_hits_total",
				Help: "Total number of search cache hits",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "globalsearch_cache_misses_total",
				Help: "Total number of search cache misses",
			},
		),
		CacheWriteErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "globalsearch_cache_write_errors_total",
				Help: "Total number of failed cache writes",
			},
		),
		InvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "globalsearch_cache_invalidations_total",
				Help: "Total number of cache invalidations",
			},
			[]string{"entity_type"},
		),
		DocumentsIndexedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "globalsearch_documents_indexed_total",
				Help: "Total number of documents written to the index",
			},
			[]string{"entity_type"},
		),
		IndexErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "globalsearch_index_errors_total",
				Help: "Total number of per-document indexing failures",
			},
			[]string{"entity_type"},
		),
		ReindexDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "globalsearch_reindex_duration_seconds",
				Help:    "Full reindex sweep duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
	}

	registry.MustRegister(
		m.SearchRequestsTotal,
		m.SearchDuration,
		m.SearchErrorsTotal,
		m.SearchFallbacksTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.CacheWriteErrors,
		m.InvalidationsTotal,
		m.DocumentsIndexedTotal,
		m.IndexErrorsTotal,
		m.ReindexDuration,
	)

	return m
}

// Handler returns the Prometheus scrape handler for a registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
