package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunnerMetrics satisfies the metricsSink interface duck-typed by both
// agentrunner and agentinvoker, recording duty-cycle work counts and
// durations, lifecycle error counts, and current running state per
// agent name. A single RunnerMetrics may be shared across every Runner
// and Invoker in a process; Prometheus label cardinality is bounded by
// the number of distinct agent names in play.
type RunnerMetrics struct {
	doWorkTotal     *prometheus.CounterVec
	doWorkDuration  *prometheus.HistogramVec
	workCount       *prometheus.CounterVec
	lifecycleErrors *prometheus.CounterVec
	running         *prometheus.GaugeVec
}

// NewRunnerMetrics builds a RunnerMetrics and registers its collectors
// against reg. Pass prometheus.DefaultRegisterer for the global
// registry, or a fresh prometheus.NewRegistry() in tests.
func NewRunnerMetrics(reg prometheus.Registerer) *RunnerMetrics {
	m := &RunnerMetrics{
		doWorkTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentrt_do_work_total",
				Help: "Total number of DoWork invocations per agent.",
			},
			[]string{"agent"},
		),
		doWorkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentrt_do_work_duration_seconds",
				Help:    "DoWork duration in seconds, labeled by agent and idle strategy.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent", "strategy"},
		),
		workCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentrt_work_count_total",
				Help: "Sum of clamped work counts returned by DoWork per agent.",
			},
			[]string{"agent"},
		),
		lifecycleErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentrt_lifecycle_errors_total",
				Help: "Total number of lifecycle or duty-cycle errors routed to the error sink per agent.",
			},
			[]string{"agent"},
		),
		running: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agentrt_agent_running",
				Help: "1 if the agent's runner is currently between OnStart and termination, 0 otherwise.",
			},
			[]string{"agent"},
		),
	}

	reg.MustRegister(m.doWorkTotal, m.doWorkDuration, m.workCount, m.lifecycleErrors, m.running)
	return m
}

// ObserveDoWork records one duty cycle.
func (m *RunnerMetrics) ObserveDoWork(agentName, strategyAlias string, workCount int, dur time.Duration) {
	m.doWorkTotal.WithLabelValues(agentName).Inc()
	m.doWorkDuration.WithLabelValues(agentName, strategyAlias).Observe(dur.Seconds())
	m.workCount.WithLabelValues(agentName).Add(float64(workCount))
}

// IncLifecycleError records one error routed through an agent's sink.
func (m *RunnerMetrics) IncLifecycleError(agentName string) {
	m.lifecycleErrors.WithLabelValues(agentName).Inc()
}

// SetRunning records whether a runner is currently active.
func (m *RunnerMetrics) SetRunning(agentName string, running bool) {
	v := 0.0
	if running {
		v = 1.0
	}
	m.running.WithLabelValues(agentName).Set(v)
}

// Handler returns an HTTP handler exposing every metric registered
// against reg in the Prometheus text exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
