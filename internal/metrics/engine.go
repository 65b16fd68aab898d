package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search engine and response cache Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maktaba",
			Name:      "engine_requests_total",
			Help:      "Total number of search engine requests",
		},
		[]string{"op", "status"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "maktaba",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op"},
	)

	EngineQueriesPerRequest = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "maktaba",
			Name:      "engine_queries_per_request",
			Help:      "Number of engine queries issued per search request",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "maktaba",
			Name:      "search_cache_total",
			Help:      "Engine response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers Prometheus engine and cache metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(EngineQueriesPerRequest)
	prometheus.MustRegister(SearchCacheTotal)
	engineMetricsRegistered = true
}
