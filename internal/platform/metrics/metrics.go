package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "duration_cache",
		Name:      "hits_total",
		Help:      "Duration cache hits",
	}, []string{"mode"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "duration_cache",
		Name:      "misses_total",
		Help:      "Duration cache misses",
	}, []string{"mode"})

	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "duration_cache",
		Name:      "errors_total",
		Help:      "Swallowed duration cache backend errors",
	}, []string{"operation"})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "duration_cache",
		Name:      "evictions_total",
		Help:      "Entries removed by LRU eviction",
	})

	MatrixCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "matrix",
		Name:      "calls_total",
		Help:      "External distance matrix calls",
	}, []string{"mode", "outcome"})

	MatrixPairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "matrix",
		Name:      "pairs_total",
		Help:      "Pairs resolved by the matrix provider, by source",
	}, []string{"source"})

	OptimizerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tripplanner",
		Subsystem: "optimizer",
		Name:      "runs_total",
		Help:      "Route optimizations by strategy and outcome",
	}, []string{"strategy", "outcome"})
)

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
