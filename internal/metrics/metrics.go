// Package metrics provides Prometheus metrics for the reporting service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReportsGenerated tracks generated reports by type, format and status
	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reporting",
			Subsystem: "reports",
			Name:      "generated_total",
			Help:      "Total number of report generations by type, format and status",
		},
		[]string{"report_type", "format", "status"},
	)

	// ReportDuration tracks extract-and-render duration in seconds
	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reporting",
			Subsystem: "reports",
			Name:      "duration_seconds",
			Help:      "Duration of report generation in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"report_type"},
	)

	// SkippedFields counts field values that could not be decoded and were defaulted
	SkippedFields = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reporting",
			Subsystem: "extract",
			Name:      "defaulted_fields_total",
			Help:      "Total number of node fields replaced by their default after a decode failure",
		},
		[]string{"kind"},
	)

	// UpstreamRequests tracks outbound calls to the farm calendar and geocoder
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reporting",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of outbound upstream requests",
		},
		[]string{"service", "status_code"},
	)

	// UpstreamDuration tracks outbound request duration
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reporting",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound upstream requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service"},
	)

	// QueueJobsInFlight tracks background generations currently running
	QueueJobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reporting",
			Subsystem: "queue",
			Name:      "jobs_in_flight",
			Help:      "Number of background report jobs currently being processed",
		},
	)

	// QueueJobsProcessed tracks finished background jobs by status
	QueueJobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reporting",
			Subsystem: "queue",
			Name:      "jobs_processed_total",
			Help:      "Total number of background report jobs processed",
		},
		[]string{"status"},
	)
)
