// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FormTransitions counts successful lifecycle transitions by event.
	FormTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wastetrack_form_transitions_total",
		Help: "Successful form lifecycle transitions, by event.",
	}, []string{"event"})

	// RejectedTransitions counts guard violations by kind.
	RejectedTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wastetrack_form_transitions_rejected_total",
		Help: "Rejected form lifecycle transitions, by reason.",
	}, []string{"event", "reason"})

	// JobRuns counts scheduled job executions by outcome.
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wastetrack_job_runs_total",
		Help: "Scheduled job executions, by job name and outcome.",
	}, []string{"job", "outcome"})

	// FormsReclaimed counts forms soft-deleted by the appendix 1 cleanup job.
	FormsReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wastetrack_appendix1_forms_reclaimed_total",
		Help: "Never-signed appendix 1 producer forms reclaimed by the cleanup job.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
