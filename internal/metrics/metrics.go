// Package metrics registers the Prometheus instruments for the assessment
// funnel. Everything is registered via promauto at init time and scraped from
// the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WizardAdvances counts successful forward transitions, labelled by the
	// step number being left. Step drop-off is read straight from this.
	WizardAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_advances_total",
			Help: "Total successful forward step transitions",
		},
		[]string{"step"},
	)

	// WizardValidationFailures counts advances rejected by step validation.
	WizardValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_validation_failures_total",
			Help: "Total step advances rejected by validation",
		},
		[]string{"step"},
	)

	// ScoresComputed observes the final score distribution by segment.
	ScoresComputed = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assessment_score",
			Help:    "Distribution of computed readiness scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"segment"},
	)

	// SubmissionDeliveries counts delivery attempts by path and result.
	// path: primary|fallback, result: ok|error|timeout.
	SubmissionDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_deliveries_total",
			Help: "Total submission delivery attempts by path and result",
		},
		[]string{"path", "result"},
	)

	// DispatchJobDuration observes redelivery job time in the dispatcher.
	DispatchJobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "dispatch_job_duration_seconds",
			Help: "Duration of submission redelivery jobs",
		},
	)

	// LeadCaptures counts lead-capture attempts by result.
	LeadCaptures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_captures_total",
			Help: "Total lead capture attempts by result",
		},
		[]string{"result"},
	)
)
