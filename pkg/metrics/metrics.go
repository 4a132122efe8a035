// Package metrics provides Prometheus metrics for the dealersight service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalyticsFetchesTotal tracks coordinated analytics fetches by outcome
	AnalyticsFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealersight",
			Subsystem: "analytics",
			Name:      "fetches_total",
			Help:      "Total number of coordinated analytics fetches by outcome",
		},
		[]string{"outcome"},
	)

	// AnalyticsFetchDuration tracks coordinated fetch duration in seconds
	AnalyticsFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "dealersight",
			Subsystem: "analytics",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of coordinated analytics fetches in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// CacheOperationsTotal tracks analytics cache reads by result
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealersight",
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Total number of analytics cache operations by result",
		},
		[]string{"operation", "result"},
	)

	// ProviderRequestDuration tracks external provider request duration
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dealersight",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Duration of external analytics provider requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	// ProviderErrorsTotal tracks external provider failures
	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealersight",
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Total number of external analytics provider failures",
		},
		[]string{"provider"},
	)

	// ResolutionsTotal tracks connection resolutions by provider and source tier
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dealersight",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of connection resolutions by provider and source tier",
		},
		[]string{"provider", "source"},
	)

	// MappingOverridesTotal tracks Search Console URL overrides from the property mapping
	MappingOverridesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dealersight",
			Subsystem: "resolver",
			Name:      "mapping_overrides_total",
			Help:      "Total number of stored connection URLs overridden by the property mapping",
		},
	)
)

// RecordFetch records a coordinated analytics fetch
func RecordFetch(outcome string, durationSeconds float64) {
	AnalyticsFetchesTotal.WithLabelValues(outcome).Inc()
	AnalyticsFetchDuration.Observe(durationSeconds)
}

// RecordCacheOperation records a cache operation result
func RecordCacheOperation(operation, result string) {
	CacheOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordProviderRequest records an external provider request
func RecordProviderRequest(provider string, durationSeconds float64, err error) {
	ProviderRequestDuration.WithLabelValues(provider).Observe(durationSeconds)
	if err != nil {
		ProviderErrorsTotal.WithLabelValues(provider).Inc()
	}
}

// RecordResolution records a connection resolution outcome
func RecordResolution(provider, source string) {
	ResolutionsTotal.WithLabelValues(provider, source).Inc()
}
