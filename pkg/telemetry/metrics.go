package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ─── Pipeline scheduler ──────────────────────────────────────────────────────

	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yfanalytics",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total pipeline runs, labelled by terminal status.",
	}, []string{"status"})

	PipelineRunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "yfanalytics",
		Subsystem: "pipeline",
		Name:      "run_duration_seconds",
		Help:      "End-to-end pipeline run time in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	TasksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yfanalytics",
		Subsystem: "pipeline",
		Name:      "tasks_processed_total",
		Help:      "Total tasks executed, labelled by task name and terminal status.",
	}, []string{"task", "status"})

	TasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "yfanalytics",
		Subsystem: "pipeline",
		Name:      "tasks_inflight",
		Help:      "Tasks currently being executed.",
	})

	TaskDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "yfanalytics",
		Subsystem: "pipeline",
		Name:      "task_duration_seconds",
		Help:      "Per-task execution time in seconds, successful attempts only.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"task"})

	TaskRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yfanalytics",
		Subsystem: "pipeline",
		Name:      "task_retries_total",
		Help:      "Total retry attempts, labelled by task name.",
	}, []string{"task"})

	TaskTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yfanalytics",
		Subsystem: "pipeline",
		Name:      "task_timeouts_total",
		Help:      "Total attempts that exceeded the task timeout.",
	}, []string{"task"})

	// ─── Results API ─────────────────────────────────────────────────────────────

	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yfanalytics",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total API requests, labelled by route and status code.",
	}, []string{"route", "code"})
)
