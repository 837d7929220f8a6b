// Package observability holds Prometheus collectors and OpenTelemetry tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// ListingCacheRequests counts listing cache lookups by result (hit, miss, error).
	ListingCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_listing_cache_requests_total",
		Help: "Listing cache lookups by result",
	}, []string{"result"})

	// ListingCacheInvalidations counts wholesale listing cache invalidations.
	ListingCacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_listing_cache_invalidations_total",
		Help: "Total number of listing cache invalidations",
	})

	// EventsPublished counts domain events by type and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_events_published_total",
		Help: "Domain events published by type and outcome",
	}, []string{"backend", "type", "outcome"})

	// ImageUploadBytes records accepted image upload sizes.
	ImageUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "yatube_image_upload_bytes",
		Help:    "Size of accepted image uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
	})

	// StorageOperationLatency records image store latency by backend and operation.
	StorageOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_storage_operation_latency_seconds",
		Help:    "Image storage operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})
)

// TrackStorage returns a function that records latency for a storage call when invoked (e.g. defer).
func TrackStorage(backend, operation string) func() {
	start := time.Now()
	return func() {
		StorageOperationLatency.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
	}
}
