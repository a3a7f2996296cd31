package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the Vendora backend. Registered once at package
// init via promauto; the /metrics endpoint exposes them.
var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	// Resolver metrics: via is the lookup path (username, id, id_fallback,
	// self), outcome is hit/miss/invalid/error.
	ResolverLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_resolver_lookups_total",
			Help: "Profile identity resolutions by lookup path and outcome",
		},
		[]string{"via", "outcome"},
	)

	ProfileRedirects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_canonical_redirects_total",
			Help: "Permanent redirects issued to canonical profile URLs",
		},
	)

	// Social mutation metrics
	FollowMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follow_mutations_total",
			Help: "Follow/unfollow mutations by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	ReconciliationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "counter_reconciliations_total",
			Help: "Authoritative counter recounts by outcome",
		},
		[]string{"outcome"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Cache hits by cache name",
		},
		[]string{"cache"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Cache misses by cache name",
		},
		[]string{"cache"},
	)
)
