package agent

import "fmt"

// Agent is a single-threaded state machine driven by a Runner or Invoker:
// OnStart runs once, DoWork runs repeatedly, OnClose runs once.
//
// DoWork must be non-blocking and must not be called concurrently with
// itself, OnStart, or OnClose — the caller (Runner/Invoker) guarantees
// that by confining the agent to a single goroutine.
type Agent interface {
	// Name returns a short, cheap-to-compute identifier used in composite
	// names, metric labels, and logs.
	Name() string

	// OnStart runs once before the first DoWork call. A returned error
	// aborts the lifecycle; ErrTermination requests a clean, non-error
	// shutdown instead.
	OnStart() error

	// DoWork advances one unit of work and returns how much work was
	// done. A negative count is treated as zero by callers.
	DoWork() (int, error)

	// OnClose runs once, iff OnStart was invoked, regardless of whether
	// OnStart or any DoWork call failed.
	OnClose() error

	// OnError is invoked by the error sink (see HandleError) whenever
	// OnStart, DoWork, or OnClose has failed with an error other than
	// ErrTermination. The default
	// embedded in Base escalates by panicking with the error; overriding
	// implementations may recover instead.
	OnError(err error)
}

// Base gives an embedding type the default lifecycle behavior: no-op
// OnStart/OnClose and an escalating OnError. Embed
// it and override only the methods that need non-default behavior.
type Base struct{}

func (Base) OnStart() error { return nil }

func (Base) OnClose() error { return nil }

// OnError escalates by panicking, the nearest Go equivalent of "rethrow"
// for a callback with no return channel. Override OnError in the
// embedding type to recover instead.
func (Base) OnError(err error) {
	panic(fmt.Errorf("agent: unhandled error: %w", err))
}

// ClampWork normalizes a DoWork return value: negative counts count as no
// work done. Both Runner and Invoker route DoWork's result through this
// before handing it to an idle strategy or a caller.
func ClampWork(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
