package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_service_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "account_service_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Tenant context metrics
	TenantContextMissingCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "account_service_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	// Database operation metrics
	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "account_service_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	// Account operation metrics
	AccountOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_service_operations_total",
			Help: "Total number of account operations",
		},
		[]string{"operation"},
	)

	// Bulk mutation metrics
	BulkItemsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_service_bulk_items_total",
			Help: "Total number of bulk operation items by outcome",
		},
		[]string{"kind", "outcome"},
	)

	// Hierarchy traversal metrics
	HierarchyDepthHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "account_service_hierarchy_depth",
			Help:    "Observed depth of account hierarchy traversals",
			Buckets: []float64{1, 2, 4, 8, 16, 32},
		},
	)
)

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAccountOperation increments the counter for account operations
func RecordAccountOperation(operation string) {
	AccountOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordBulkItems adds per-outcome counts for one bulk run
func RecordBulkItems(kind string, succeeded, failed int) {
	BulkItemsCounter.WithLabelValues(kind, "success").Add(float64(succeeded))
	BulkItemsCounter.WithLabelValues(kind, "failed").Add(float64(failed))
}
