package agentinvoker

import (
	"time"

	"github.com/aixgo-dev/agentrt/agent"
)

// metricsSink mirrors agentrunner's duck-typed sink so pkg/observability's
// single RunnerMetrics implementation serves both Runner and Invoker
// without agentinvoker importing it directly.
type metricsSink interface {
	ObserveDoWork(agentName, strategyAlias string, workCount int, dur time.Duration)
	IncLifecycleError(agentName string)
	SetRunning(agentName string, running bool)
}

type config struct {
	errorHandler agent.ErrorHandler
	errorCount   *agent.ErrorCount
	metrics      metricsSink
}

func defaultConfig() config {
	return config{}
}

// Option configures an Invoker at construction time.
type Option func(*config)

// WithErrorHandler supplies a handler invoked (before the agent's own
// OnError) whenever a lifecycle method or Invoke fails.
func WithErrorHandler(h agent.ErrorHandler) Option {
	return func(c *config) { c.errorHandler = h }
}

// WithErrorCount supplies a shared counter incremented once per failure.
func WithErrorCount(ec *agent.ErrorCount) Option {
	return func(c *config) { c.errorCount = ec }
}

// WithMetrics attaches a pkg/observability.RunnerMetrics sink. Invoke
// reports work counts under the "invoker" strategy alias, since an
// Invoker never idles.
func WithMetrics(m metricsSink) Option {
	return func(c *config) { c.metrics = m }
}

const strategyAlias = "invoker"
