package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the SPEC_FULL.md-added observability surface: queue
// depth, dispatch latency, solve duration, and solve errors by
// taxonomy code. The teacher never imports Prometheus; these
// collectors are registered fresh per SPEC_FULL.md's Observability
// section, named the way the corpus's other repos name theirs
// (snake_case, a fixed namespace).
var (
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "optimus",
		Subsystem: "dispatcher",
		Name:      "queue_depth",
		Help:      "Number of exec-context requests currently queued awaiting a worker.",
	})

	DispatchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "optimus",
		Subsystem: "dispatcher",
		Name:      "dispatch_latency_seconds",
		Help:      "Time between a request's enqueue and a worker accepting it.",
		Buckets:   prometheus.DefBuckets,
	})

	SolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "optimus",
		Subsystem: "solver",
		Name:      "solve_duration_seconds",
		Help:      "Wall-clock time spent inside Engine.Solve per solve call.",
		Buckets:   prometheus.DefBuckets,
	})

	SolveErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "optimus",
		Subsystem: "solver",
		Name:      "solve_errors_total",
		Help:      "Solve failures, labeled by error taxonomy code.",
	}, []string{"code"})
)

// ObserveSolve records a solve's duration and, if it failed, the
// taxonomy code it failed with.
func ObserveSolve(start time.Time, taxonomyCode string) {
	SolveDuration.Observe(time.Since(start).Seconds())
	if taxonomyCode != "" {
		SolveErrors.WithLabelValues(taxonomyCode).Inc()
	}
}
