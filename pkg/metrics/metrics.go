// Package metrics exposes the proxy's operational surface: Prometheus
// counters/gauges and a small admin HTTP API. Grounded on
// caddyserver-caddy's metrics.go (prometheus + promauto counter
// registration) and its chi-routable admin API pattern. This surface is
// purely observational — spec.md's invariants and testable properties
// hold with or without it running (SPEC_FULL.md §4.10).
package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cacheproxy/webproxy/pkg/cache"
	"github.com/cacheproxy/webproxy/pkg/queue"
	"github.com/cacheproxy/webproxy/pkg/timing"
)

const (
	namespace = "webproxy"
)

// Registry holds the proxy's Prometheus collectors and implements
// transaction.Recorder so the transaction engine can feed it directly.
type Registry struct {
	cache *cache.Cache
	queue *queue.Queue

	transactions  *prometheus.CounterVec
	bytesRelayed  prometheus.Counter
	originConnect prometheus.Histogram
	ttfb          prometheus.Histogram
}

// NewRegistry registers the proxy's collectors against reg and returns a
// Registry bound to c (for cache occupancy gauges) and q (for queue depth).
func NewRegistry(reg *prometheus.Registry, c *cache.Cache, q *queue.Queue) *Registry {
	factory := promauto.With(reg)

	r := &Registry{
		cache: c,
		queue: q,
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Completed transactions by outcome (hit/miss/error).",
		}, []string{"outcome"}),
		bytesRelayed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_relayed_total",
			Help:      "Total response bytes written to clients.",
		}),
		originConnect: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "origin_connect_seconds",
			Help:      "Time spent dialing the origin server.",
		}),
		ttfb: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "origin_ttfb_seconds",
			Help:      "Time to first byte from the origin server.",
		}),
	}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_entries",
		Help:      "Number of entries currently cached.",
	}, func() float64 { return float64(c.Stats().Entries) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cache_bytes",
		Help:      "Total bytes currently cached.",
	}, func() float64 { return float64(c.Stats().TotalSize) })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Number of connections currently queued for a worker.",
	}, func() float64 { return float64(q.Len()) })

	return r
}

// ObserveTransaction implements transaction.Recorder.
func (r *Registry) ObserveTransaction(outcome string, bytesRelayed int64, m timing.Metrics) {
	r.transactions.WithLabelValues(outcome).Inc()
	r.bytesRelayed.Add(float64(bytesRelayed))
	if m.OriginConnect > 0 {
		r.originConnect.Observe(m.OriginConnect.Seconds())
	}
	if m.TTFB > 0 {
		r.ttfb.Observe(m.TTFB.Seconds())
	}
}

// debugCacheSnapshot is the JSON body served at GET /debug/cache.
type debugCacheSnapshot struct {
	Entries       int   `json:"entries"`
	TotalSize     int64 `json:"total_size"`
	MaxCacheSize  int64 `json:"max_cache_size"`
	MaxObjectSize int64 `json:"max_object_size"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Evictions     int64 `json:"evictions"`
}

// Router returns the admin HTTP surface: GET /metrics (Prometheus
// exposition) and GET /debug/cache (a JSON occupancy snapshot).
func Router(reg *prometheus.Registry, c *cache.Cache) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/debug/cache", func(w http.ResponseWriter, req *http.Request) {
		stats := c.Stats()
		snap := debugCacheSnapshot{
			Entries:       stats.Entries,
			TotalSize:     stats.TotalSize,
			MaxCacheSize:  stats.MaxCacheSize,
			MaxObjectSize: stats.MaxObjectSize,
			Hits:          c.Hits(),
			Misses:        c.Misses(),
			Evictions:     c.Evictions(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	})
	return r
}
