package agentrunner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aixgo-dev/agentrt/agent"
	"github.com/aixgo-dev/agentrt/idlestrategy"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrCloseTimeout is returned by Close when the worker did not stop
// within the requested timeout. Per spec, cancellation is cooperative —
// the worker only ever observes shutdown between duty cycles, so a
// worker parked deep in a Backoff strategy may not notice for up to its
// strategy's maximum park period. There is no mechanism to interrupt a
// DoWork call already in progress.
var ErrCloseTimeout = errors.New("agentrunner: close timed out waiting for worker")

// Runner owns an agent.Agent and an idlestrategy.Strategy for the
// lifetime of one goroutine: it spawns the goroutine, sequences
// OnStart/DoWork+Idle/OnClose on it, and exposes atomic flags so other
// goroutines can observe liveness and request shutdown.
//
// A Runner must not be started more than once, and must not be started
// after it has been closed.
type Runner struct {
	id       string
	strategy idlestrategy.Strategy
	agent    agent.Agent
	cfg      config

	started       atomic.Bool
	running       atomic.Bool
	closed        atomic.Bool
	stopRequested atomic.Bool

	// onStartRan is touched only by the worker goroutine — set in
	// workerLoop before OnStart, read in the deferred runOnClose — so it
	// needs no synchronization of its own.
	onStartRan bool

	done chan struct{}
}

// New constructs a Runner over the given idle strategy and agent. The
// strategy instance is owned exclusively by this Runner from Start
// onward and must not be shared with another Runner.
func New(strategy idlestrategy.Strategy, a agent.Agent, opts ...Option) *Runner {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runner{
		id:       uuid.New().String(),
		strategy: strategy,
		agent:    a,
		cfg:      cfg,
		done:     make(chan struct{}),
	}
}

// ID returns a unique identifier generated for this Runner instance, for
// correlating its logs, traces, and metrics with a single worker
// goroutine across restarts of agents sharing the same Name().
func (r *Runner) ID() string { return r.id }

// Start spawns the worker goroutine. It rejects a second Start (even
// after Close) and a Start after Close with agent.ErrPrecondition. Start
// returns once the goroutine has been launched, not once OnStart has
// completed — callers needing to observe IsRunning() must poll.
func (r *Runner) Start() error {
	if r.closed.Load() || r.stopRequested.Load() {
		return fmt.Errorf("%w: runner already closed", agent.ErrPrecondition)
	}
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: runner already started", agent.ErrPrecondition)
	}

	go r.workerLoop()
	return nil
}

// StartOnGoroutine is an alias for Start matching the spec's
// "start_on_thread" naming.
func (r *Runner) StartOnGoroutine() error { return r.Start() }

func (r *Runner) workerLoop() {
	defer close(r.done)
	defer r.closed.Store(true)
	defer r.runOnClose()

	// A Close call that wins the race with this goroutine's own launch
	// has already requested shutdown; honor it before running OnStart at
	// all rather than letting the running flag set below clobber it.
	if r.stopRequested.Load() {
		return
	}

	r.running.Store(true)
	r.onStartRan = true
	if r.cfg.metrics != nil {
		r.cfg.metrics.SetRunning(r.agent.Name(), true)
	}

	if err := r.runLifecycleStep("on_start", r.agent.OnStart); err != nil {
		r.running.Store(false)
		r.routeLifecycleError(err)
	} else {
		for !r.stopRequested.Load() {
			if r.tick() {
				break
			}
		}
		r.running.Store(false)
	}
}

// runOnClose runs OnClose exactly once, iff OnStart was invoked, however
// the work loop above exited — normally, via ErrTermination, via an error
// sink that escalated by panicking (agent.Base's default OnError does
// this), or via a Close that raced the worker goroutine's own launch and
// won before OnStart ran at all. It is deferred rather than called as a
// plain statement so a panic unwinding out of the loop still reaches
// OnClose instead of skipping it.
func (r *Runner) runOnClose() {
	if !r.onStartRan {
		return
	}
	r.running.Store(false)
	if err := r.runLifecycleStep("on_close", r.agent.OnClose); err != nil {
		r.routeLifecycleError(err)
	}
	if r.cfg.metrics != nil {
		r.cfg.metrics.SetRunning(r.agent.Name(), false)
	}
}

// tick runs one duty cycle. It returns true if the loop should stop.
func (r *Runner) tick() (stop bool) {
	start := time.Now()
	work, err := r.agent.DoWork()
	if err != nil {
		if errors.Is(err, agent.ErrTermination) {
			r.running.Store(false)
			return true
		}
		return r.handleTickError(err)
	}

	clamped := agent.ClampWork(work)
	if r.cfg.metrics != nil {
		r.cfg.metrics.ObserveDoWork(r.agent.Name(), r.strategy.Alias(), clamped, time.Since(start))
	}
	idlestrategy.Idle(r.strategy, clamped)
	return false
}

// handleTickError routes a non-termination DoWork error through the
// error sink. Both ErrTermination and an escalating OnError/ErrorHandler
// panic (agent.Base's default OnError does this for any error it is not
// overridden to recover from) mean the same thing here: stop the loop
// and let OnClose still run — recovering any panic, not just
// ErrTermination, is what keeps that guarantee regardless of which kind
// of error the agent's own OnError chooses to escalate. It returns true
// if the loop should stop.
func (r *Runner) handleTickError(err error) (stop bool) {
	defer func() {
		if recover() != nil {
			r.running.Store(false)
			stop = true
		}
	}()
	if r.cfg.metrics != nil {
		r.cfg.metrics.IncLifecycleError(r.agent.Name())
	}
	agent.HandleError(r.cfg.errorHandler, r.cfg.errorCount, r.agent, err)
	return false
}

// routeLifecycleError is used for OnStart/OnClose failures, which spec.md
// treats as always running to completion; any panic raised by the error
// sink (a termination signal or an escalating default OnError) is
// absorbed here rather than left to unwind the worker goroutine — the
// caller (workerLoop/runOnClose) has already decided to stop regardless.
func (r *Runner) routeLifecycleError(err error) {
	if errors.Is(err, agent.ErrTermination) {
		return
	}
	defer func() {
		recover()
	}()
	if r.cfg.metrics != nil {
		r.cfg.metrics.IncLifecycleError(r.agent.Name())
	}
	agent.HandleError(r.cfg.errorHandler, r.cfg.errorCount, r.agent, err)
}

func (r *Runner) runLifecycleStep(spanName string, step func() error) error {
	if r.cfg.tracer == nil {
		return step()
	}
	_, span := r.cfg.tracer.Start(context.Background(), spanName,
		trace.WithAttributes(
			attribute.String("agent.name", r.agent.Name()),
			attribute.String("runner.id", r.id),
		))
	defer span.End()
	err := step()
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Close requests that the worker stop after its current duty cycle and
// waits up to timeout for it to do so. Close is safe to call from any
// goroutine and more than once; a zero-value closed Runner returns nil
// immediately. Calling Close before Start has ever been called also
// returns nil immediately — there is no worker goroutine to wait for —
// and any later Start is rejected.
func (r *Runner) Close(timeout time.Duration) error {
	r.stopRequested.Store(true)
	if !r.started.Load() {
		return nil
	}
	if timeout <= 0 {
		timeout = r.cfg.closeTimeout
	}
	r.running.Store(false)

	select {
	case <-r.done:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-r.done:
		return nil
	case <-timer.C:
		return ErrCloseTimeout
	}
}

// Wait blocks until the worker goroutine has fully stopped (OnClose has
// returned and the closed flag has been set).
func (r *Runner) Wait() {
	<-r.done
}

// IsRunning reports whether the worker is between the call to OnStart
// and its termination. The flag is set just before OnStart is called and
// cleared if OnStart fails, so it does not by itself mean OnStart has
// completed.
func (r *Runner) IsRunning() bool { return r.running.Load() }

// IsClosed reports whether OnClose has completed.
func (r *Runner) IsClosed() bool { return r.closed.Load() }

// IsOpen is !IsClosed().
func (r *Runner) IsOpen() bool { return !r.IsClosed() }

// Agent returns the wrapped agent, mainly for diagnostics.
func (r *Runner) Agent() agent.Agent { return r.agent }
