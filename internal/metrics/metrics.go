package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the workflow pipeline.
// Collectors are not registered at construction so tests can build
// throwaway instances; call Register with a registry to expose them.
type Metrics struct {
	RequestsProcessed *prometheus.CounterVec
	ApprovalOutcomes  *prometheus.CounterVec
	WorkflowDuration  prometheus.Histogram
	WorkflowErrors    prometheus.Counter
	DecisionsApplied  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		RequestsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkbot",
			Name:      "requests_processed_total",
			Help:      "Workflow runs by classified request type.",
		}, []string{"request_type"}),

		ApprovalOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkbot",
			Name:      "approval_outcomes_total",
			Help:      "Approval stage outcomes by status.",
		}, []string{"status"}),

		WorkflowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parkbot",
			Name:      "workflow_duration_seconds",
			Help:      "Time spent running one workflow.",
			Buckets:   prometheus.DefBuckets,
		}),

		WorkflowErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parkbot",
			Name:      "workflow_errors_total",
			Help:      "Recoverable errors recorded inside workflow runs.",
		}),

		DecisionsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parkbot",
			Name:      "decisions_applied_total",
			Help:      "Approval decisions applied to the registry.",
		}),
	}
}

// Register adds all collectors to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.RequestsProcessed,
		m.ApprovalOutcomes,
		m.WorkflowDuration,
		m.WorkflowErrors,
		m.DecisionsApplied,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveWorkflow records the outcome of one workflow run.
func (m *Metrics) ObserveWorkflow(requestType, approvalStatus string, errCount int, elapsed time.Duration) {
	m.RequestsProcessed.WithLabelValues(requestType).Inc()
	if approvalStatus != "" {
		m.ApprovalOutcomes.WithLabelValues(approvalStatus).Inc()
	}
	m.WorkflowDuration.Observe(elapsed.Seconds())
	m.WorkflowErrors.Add(float64(errCount))
}
