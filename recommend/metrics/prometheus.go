// Package metrics exports recommendation engine metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/recall/recommend/cache"
)

// Exporter collects engine counters and serves them over /metrics.
type Exporter struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fallbackTotal   *prometheus.CounterVec
	rankedResults   prometheus.Histogram
}

// NewExporter creates an exporter with its own registry. When resultCache is
// non-nil, cache hit/miss counters are exported as gauge functions reading
// the cache's own counters.
func NewExporter(resultCache *cache.Cache) *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "recommendation_requests_total",
			Help:      "Recommendation requests by kind and result tier.",
		}, []string{"kind", "tier"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "recall",
			Name:      "recommendation_duration_seconds",
			Help:      "End-to-end recommendation latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "recommendation_fallback_total",
			Help:      "Fallback results by reason.",
		}, []string{"reason"}),
		rankedResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recall",
			Name:      "recommendation_result_count",
			Help:      "Number of recommendations returned per request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}),
	}

	registry.MustRegister(e.requestsTotal, e.requestDuration, e.fallbackTotal, e.rankedResults)

	if resultCache != nil {
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "recall",
			Name:      "result_cache_hits_total",
			Help:      "Result cache hits since startup.",
		}, func() float64 { return float64(resultCache.Stats().Hits) }))
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "recall",
			Name:      "result_cache_misses_total",
			Help:      "Result cache misses since startup.",
		}, func() float64 { return float64(resultCache.Stats().Misses) }))
		registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "recall",
			Name:      "result_cache_entries",
			Help:      "Entries currently held by the result cache.",
		}, func() float64 { return float64(resultCache.Len()) }))
	}

	return e
}

// RecordRequest records one finished recommendation call.
func (e *Exporter) RecordRequest(kind, tier string, duration time.Duration, results int) {
	if e == nil {
		return
	}
	e.requestsTotal.WithLabelValues(kind, tier).Inc()
	e.requestDuration.WithLabelValues(kind).Observe(duration.Seconds())
	e.rankedResults.Observe(float64(results))
}

// RecordFallback records a served fallback by reason.
func (e *Exporter) RecordFallback(reason string) {
	if e == nil {
		return
	}
	e.fallbackTotal.WithLabelValues(reason).Inc()
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
