package agentinvoker

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aixgo-dev/agentrt/agent"
)

// Invoker drives a single agent.Agent from its caller's goroutine, one
// duty cycle per Invoke call. It never idles and never spawns a
// goroutine, unlike agentrunner.Runner.
type Invoker struct {
	agent agent.Agent
	cfg   config

	started atomic.Bool
	running atomic.Bool
	closed  atomic.Bool
}

// New constructs an Invoker over the given agent.
func New(a agent.Agent, opts ...Option) *Invoker {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Invoker{agent: a, cfg: cfg}
}

// Start calls the agent's OnStart. On success the Invoker begins
// accepting Invoke calls. On failure the error is routed through
// HandleError and the Invoker is closed; Start returns the original
// error in that case.
func (iv *Invoker) Start() error {
	if iv.closed.Load() {
		return fmt.Errorf("%w: invoker already closed", agent.ErrPrecondition)
	}
	if !iv.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: invoker already started", agent.ErrPrecondition)
	}

	if err := iv.agent.OnStart(); err != nil {
		iv.HandleError(err)
		_ = iv.Close()
		return err
	}

	iv.running.Store(true)
	if iv.cfg.metrics != nil {
		iv.cfg.metrics.SetRunning(iv.agent.Name(), true)
	}
	return nil
}

// Invoke runs a single duty cycle and returns the clamped work count, or
// 0 if the Invoker is not currently running (not started, already
// closed, or terminated by a prior Invoke). A DoWork error other than
// agent.ErrTermination is routed through HandleError and does not stop
// the Invoker unless the handler or the agent's OnError escalates by
// panicking, which closes it; ErrTermination closes it.
func (iv *Invoker) Invoke() int {
	if !iv.running.Load() {
		return 0
	}

	start := time.Now()
	work, err := iv.agent.DoWork()
	if err != nil {
		if errors.Is(err, agent.ErrTermination) {
			iv.running.Store(false)
			_ = iv.Close()
			return 0
		}
		iv.HandleError(err)
		return 0
	}

	clamped := agent.ClampWork(work)
	if iv.cfg.metrics != nil {
		iv.cfg.metrics.ObserveDoWork(iv.agent.Name(), strategyAlias, clamped, time.Since(start))
	}
	return clamped
}

// HandleError is the funnel for any error raised while driving this
// Invoker: the error counter is incremented first (if configured), then
// the configured handler runs (if any), then the agent's own OnError
// runs — agent.HandleError's fixed order. Unlike agentrunner.Runner,
// which recovers a panic per-tick, Invoker recovers it right here, so
// neither Start nor Invoke ever panics out to their caller: whether the
// handler or OnError escalates with agent.ErrTermination or, by default,
// any other error (agent.Base.OnError panics regardless of error type),
// the result is the same — the Invoker closes. agent.ErrTermination
// itself is not routed through the sink at all: it closes the Invoker
// directly.
func (iv *Invoker) HandleError(err error) {
	if errors.Is(err, agent.ErrTermination) {
		iv.running.Store(false)
		_ = iv.Close()
		return
	}
	defer func() {
		if recover() != nil {
			iv.running.Store(false)
			_ = iv.Close()
		}
	}()
	if iv.cfg.metrics != nil {
		iv.cfg.metrics.IncLifecycleError(iv.agent.Name())
	}
	agent.HandleError(iv.cfg.errorHandler, iv.cfg.errorCount, iv.agent, err)
}

// Close calls the agent's OnClose exactly once, routing any failure
// through HandleError. It is idempotent and safe to call even if Start
// was never called or failed.
func (iv *Invoker) Close() error {
	if !iv.closed.CompareAndSwap(false, true) {
		return nil
	}
	iv.running.Store(false)
	if iv.cfg.metrics != nil {
		iv.cfg.metrics.SetRunning(iv.agent.Name(), false)
	}

	err := iv.agent.OnClose()
	if err != nil && !errors.Is(err, agent.ErrTermination) {
		iv.HandleError(err)
	}
	return err
}

// IsStarted reports whether Start has been called successfully or
// unsuccessfully attempted (i.e. whether a second Start would be
// rejected).
func (iv *Invoker) IsStarted() bool { return iv.started.Load() }

// IsRunning reports whether Invoke currently accepts calls.
func (iv *Invoker) IsRunning() bool { return iv.running.Load() }

// IsClosed reports whether Close has run.
func (iv *Invoker) IsClosed() bool { return iv.closed.Load() }

// Agent returns the wrapped agent, mainly for diagnostics.
func (iv *Invoker) Agent() agent.Agent { return iv.agent }
