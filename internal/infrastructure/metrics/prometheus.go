// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contentservice"

var (
	// CacheOperationsTotal tracks cache store operations.
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, corrupt, success, error
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache store operations",
		},
		[]string{"operation", "status"},
	)

	// QualityIssuesTotal tracks data-quality violations raised by the monitor.
	// Labels:
	//   - kind: issue kind (e.g. EPISODE_MISSING_FINALIZED_ASSET)
	QualityIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quality_issues_total",
			Help:      "Total number of catalog data-quality violations detected",
		},
		[]string{"kind"},
	)

	// CatalogEventsPublishedTotal tracks mutation events appended to the stream.
	// Labels:
	//   - type: event type (catalog.asset.registered, catalog.metrics.applied)
	//   - status: success, error
	CatalogEventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_events_published_total",
			Help:      "Total number of catalog mutation events published",
		},
		[]string{"type", "status"},
	)

	// TrendingUpdatesTotal tracks score deltas applied to the ranked set.
	// Labels:
	//   - status: success, error
	TrendingUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trending_updates_total",
			Help:      "Total number of trending score increments applied",
		},
		[]string{"status"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior on cache misses.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusCorrupt = "corrupt"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Publish/update status constants.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)
