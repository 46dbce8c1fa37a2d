package agent

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// ErrTermination is the distinguished sentinel an agent (or an
// ErrorHandler) raises from any lifecycle method to request an orderly,
// non-error shutdown of its Runner or Invoker. It is never routed to a
// counter or handler — the sink that receives it, if any, is the
// Runner/Invoker loop itself, which treats it as "stop running".
var ErrTermination = errors.New("agent: termination requested")

// ErrPrecondition marks an error raised synchronously by the caller's own
// misuse of the public API (double start, start after close, try-add/
// try-remove outside DynamicComposite's Active status, a SleepingNs
// period >= 1 second). These are never routed through the error sink.
var ErrPrecondition = errors.New("agent: precondition failed")

// ErrorHandler is invoked by HandleError before the agent's own OnError.
// It may raise ErrTermination to request a shutdown.
type ErrorHandler func(a Agent, err error)

// ErrorCount is a shared, atomically-incremented failure counter a caller
// may supply to a Runner or Invoker to observe how many ticks failed.
type ErrorCount struct {
	n atomic.Int64
}

// Add increments the counter and returns its new value.
func (c *ErrorCount) Add() int64 {
	return c.n.Add(1)
}

// Load returns the current counter value.
func (c *ErrorCount) Load() int64 {
	return c.n.Load()
}

// HandleError is the error-sink combinator shared by Runner and Invoker:
// increment the counter if present, invoke the handler if present, then
// invoke the agent's own OnError — in that order. Either the handler or
// OnError may panic with ErrTermination (or any other error) to signal
// the caller; HandleError does not recover from that panic itself. OnError
// is deferred so it still runs even if the handler is the one that
// panics — the handler escalating does not excuse the agent from seeing
// its own error.
func HandleError(h ErrorHandler, c *ErrorCount, a Agent, err error) {
	if c != nil {
		c.Add()
	}
	defer a.OnError(err)
	if h != nil {
		h(a, err)
	}
}

// AggregateError bundles every failure collected while iterating a fixed
// set of sub-agents (Composite.OnStart/OnClose, DynamicComposite.OnClose).
// It implements Unwrap() []error so errors.Is/errors.As see every
// component failure.
type AggregateError struct {
	Errs []error
}

func (e *AggregateError) Error() string {
	if len(e.Errs) == 1 {
		return e.Errs[0].Error()
	}
	parts := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("agent: %d failures: %s", len(e.Errs), strings.Join(parts, "; "))
}

func (e *AggregateError) Unwrap() []error { return e.Errs }

// newAggregateError returns nil if errs holds no non-nil error, otherwise
// an *AggregateError wrapping every non-nil error in errs, in order.
func newAggregateError(errs []error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return &AggregateError{Errs: nonNil}
}
