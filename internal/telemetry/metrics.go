package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ProviderRequests counts upstream provider HTTP calls
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "provider_requests_total",
			Help:      "Total number of upstream provider HTTP requests",
		},
		[]string{"provider"},
	)

	// ProviderErrors counts failed upstream provider calls
	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "provider_errors_total",
			Help:      "Total number of failed upstream provider requests",
		},
		[]string{"provider", "reason"},
	)

	// CacheHits counts cache reads served from a fresh entry
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"key"},
	)

	// CacheMisses counts cache reads that found no fresh entry
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses (absent, expired or corrupt)",
		},
		[]string{"key"},
	)

	// RateLimitRejections counts budget checks that denied an upstream call
	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "rate_limit_rejections_total",
			Help:      "Total number of upstream calls denied by the local call budget",
		},
		[]string{"provider"},
	)

	// EnrichmentRuns counts completed enrichment runs
	EnrichmentRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "threatwatch",
			Name:      "enrichment_runs_total",
			Help:      "Total number of enrichment runs",
		},
		[]string{"outcome"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// This function is idempotent and can be called multiple times safely.
func InitMetrics() {
	once.Do(func() {
		// Register metrics, ignoring errors if already registered
		prometheus.DefaultRegisterer.Register(ProviderRequests)
		prometheus.DefaultRegisterer.Register(ProviderErrors)
		prometheus.DefaultRegisterer.Register(CacheHits)
		prometheus.DefaultRegisterer.Register(CacheMisses)
		prometheus.DefaultRegisterer.Register(RateLimitRejections)
		prometheus.DefaultRegisterer.Register(EnrichmentRuns)
	})
}
