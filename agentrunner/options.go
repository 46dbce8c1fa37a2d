package agentrunner

import (
	"time"

	"github.com/aixgo-dev/agentrt/agent"
	"go.opentelemetry.io/otel/trace"
)

const defaultCloseTimeout = 100 * time.Millisecond

// metricsSink is the subset of pkg/observability.RunnerMetrics the runner
// needs, kept as an interface here so agentrunner does not have to import
// the observability package (and so tests can supply a fake).
type metricsSink interface {
	ObserveDoWork(agentName, strategyAlias string, workCount int, dur time.Duration)
	IncLifecycleError(agentName string)
	SetRunning(agentName string, running bool)
}

type config struct {
	errorHandler agent.ErrorHandler
	errorCount   *agent.ErrorCount
	closeTimeout time.Duration
	metrics      metricsSink
	tracer       trace.Tracer
}

func defaultConfig() config {
	return config{closeTimeout: defaultCloseTimeout}
}

// Option configures a Runner at construction time.
type Option func(*config)

// WithErrorHandler supplies a handler invoked (before the agent's own
// OnError) whenever a lifecycle method fails.
func WithErrorHandler(h agent.ErrorHandler) Option {
	return func(c *config) { c.errorHandler = h }
}

// WithErrorCount supplies a shared counter incremented once per failure.
func WithErrorCount(ec *agent.ErrorCount) Option {
	return func(c *config) { c.errorCount = ec }
}

// WithCloseTimeout sets the default Close wait used when Close is called
// with a non-positive timeout. Default 100ms.
func WithCloseTimeout(d time.Duration) Option {
	return func(c *config) { c.closeTimeout = d }
}

// WithMetrics attaches a pkg/observability.RunnerMetrics sink.
func WithMetrics(m metricsSink) Option {
	return func(c *config) { c.metrics = m }
}

// WithTracer attaches an OpenTelemetry tracer; when set, OnStart and
// OnClose are each wrapped in a span. Duty cycles are not traced.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) { c.tracer = t }
}
