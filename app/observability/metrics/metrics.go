package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	EnrichmentTasksTotal      metric.Int64Counter
	EnrichmentDurationSeconds metric.Float64Histogram
	CacheHitsTotal            metric.Int64Counter
	CacheMissesTotal          metric.Int64Counter
	ProviderFailuresTotal     metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TripItineraryAPI")
		var err error
		m := &AppMetrics{}

		m.EnrichmentTasksTotal, err = meter.Int64Counter(
			"enrichment_tasks_total",
			metric.WithDescription("Total number of per-item enrichment tasks completed"),
			metric.WithUnit("{task}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create enrichment_tasks_total: %v", err)
		}

		m.EnrichmentDurationSeconds, err = meter.Float64Histogram(
			"enrichment_duration_seconds",
			metric.WithDescription("Duration of per-item enrichment in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create enrichment_duration_seconds: %v", err)
		}

		m.CacheHitsTotal, err = meter.Int64Counter(
			"photo_cache_hits_total",
			metric.WithDescription("Total number of photo cache hits"),
			metric.WithUnit("{hit}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create photo_cache_hits_total: %v", err)
		}

		m.CacheMissesTotal, err = meter.Int64Counter(
			"photo_cache_misses_total",
			metric.WithDescription("Total number of photo cache misses"),
			metric.WithUnit("{miss}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create photo_cache_misses_total: %v", err)
		}

		m.ProviderFailuresTotal, err = meter.Int64Counter(
			"provider_failures_total",
			metric.WithDescription("Total number of external provider failures or timeouts"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create provider_failures_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics.InitAppMetrics must be called at startup before metrics.Get")
	}
	return appMetrics
}
