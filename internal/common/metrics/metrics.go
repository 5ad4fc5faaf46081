// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	IntentRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intent_requests_total",
			Help: "Total number of resolved intent requests by final state and intent",
		},
		[]string{"final_state", "intent"},
	)

	IntentResolutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intent_resolution_duration_seconds",
			Help:    "Duration of a full intent resolution in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"transport"},
	)

	RouterInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_invocations_total",
			Help: "Primary router calls by outcome (responded, empty, rate_limited, error)",
		},
		[]string{"outcome"},
	)

	RouterRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "router_retries_total",
			Help: "Number of primary router retries after a rate-limit signal",
		},
	)

	FallbackDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_dispatches_total",
			Help: "Direct backend dispatches by operation and result",
		},
		[]string{"operation", "result"},
	)

	NameMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "name_matches_total",
			Help: "Name matcher results by precedence tier",
		},
		[]string{"tier"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "store_operation_duration_seconds",
			Help: "Duration of procedure store operations in seconds",
		},
		[]string{"backend", "operation"},
	)

	NotificationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Procedure notifications by result",
		},
		[]string{"result"},
	)
)
