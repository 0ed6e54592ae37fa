// Package metrics exposes Prometheus counters for imports, bulk batches and
// the read cache. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	imports        *prometheus.CounterVec
	importDuration prometheus.Histogram
	graphFailures  *prometheus.CounterVec
	bulkItems      *prometheus.CounterVec
	bulkRetries    prometheus.Counter
	cacheRequests  *prometheus.CounterVec
	cacheEvictions prometheus.Counter
}

// New registers the catalogsync collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		imports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_imports_total",
			Help: "Title imports by outcome",
		}, []string{"result"}),
		importDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalogsync_import_duration_seconds",
			Help:    "Wall time of a single title import",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		graphFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_graph_failures_total",
			Help: "Child entity upserts that failed during an import",
		}, []string{"entity"}),
		bulkItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_bulk_items_total",
			Help: "Bulk import items by outcome",
		}, []string{"result"}),
		bulkRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "catalogsync_bulk_retries_total",
			Help: "Bulk import attempts beyond the first",
		}),
		cacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_cache_requests_total",
			Help: "Catalog read cache lookups",
		}, []string{"result"}),
		cacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "catalogsync_cache_invalidated_keys_total",
			Help: "Cache keys removed by invalidation",
		}),
	}
}

// ObserveImport records one import outcome and its duration.
func (m *Metrics) ObserveImport(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(result).Inc()
	m.importDuration.Observe(elapsed.Seconds())
}

// AddGraphFailures records failed child upserts (link, season, episode).
func (m *Metrics) AddGraphFailures(entity string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.graphFailures.WithLabelValues(entity).Add(float64(n))
}

// AddBulkItems records bulk item outcomes (success, failed, skipped).
func (m *Metrics) AddBulkItems(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bulkItems.WithLabelValues(result).Add(float64(n))
}

// IncBulkRetry records one retried bulk attempt.
func (m *Metrics) IncBulkRetry() {
	if m == nil {
		return
	}
	m.bulkRetries.Inc()
}

// ObserveCache records a read cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

// AddCacheInvalidations records removed cache keys.
func (m *Metrics) AddCacheInvalidations(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheEvictions.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
