// Package metrics Prometheus 指标定义
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydro_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydro_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	AnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydro_analysis_total",
			Help: "Analysis requests by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydro_rate_limit_rejections_total",
			Help: "Requests rejected by the daily limit",
		},
		[]string{"limit_type"},
	)

	BarcodeCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydro_barcode_cache_lookups_total",
			Help: "Barcode cache lookups by result",
		},
		[]string{"result"},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hydro_jobs_processed_total",
			Help: "Jobs processed by type and final status",
		},
		[]string{"type", "status"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hydro_job_duration_seconds",
			Help:    "Job handler duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"type"},
	)

	CleanupEntriesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hydro_cleanup_entries_deleted_total",
			Help: "Water entries removed by retention cleanup",
		},
	)
)
