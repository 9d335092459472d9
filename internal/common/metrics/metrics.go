// internal/common/metrics/metrics.go
package metrics

import (
	"strings"

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

	AnswerSourceSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_source_selected_total",
			Help: "Answer sources chosen by the router",
		},
		[]string{"tool"},
	)

	AnswerToolOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_tool_runs_total",
			Help: "Answer tool runs by outcome",
		},
		[]string{"tool", "outcome"},
	)

	AnswerFinalSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_final_source_total",
			Help: "Source tag of the answers returned to callers",
		},
		[]string{"kind"},
	)

	AnswerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "answer_duration_seconds",
			Help:    "End to end answer latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"kind"},
	)

	DocumentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_documents_classified_total",
			Help: "Documents classified per document type",
		},
		[]string{"document_type"},
	)

	FieldsMapped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_fields_total",
			Help: "Extracted fields by mapping outcome",
		},
		[]string{"outcome"},
	)

	DatesNormalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_dates_normalized_total",
			Help: "Date values rewritten to DD/MM/YYYY",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)
)

// FinalSourceKind collapses fallback tags such as
// "direct_llm_tool (fallback from rag_tool)" into a bounded label.
func FinalSourceKind(source string) string {
	switch {
	case source == "default_fallback":
		return "default_fallback"
	case strings.Contains(source, "(fallback from "):
		return "fallback"
	case source == "":
		return "unknown"
	default:
		return source
	}
}
