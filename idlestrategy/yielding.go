package idlestrategy

import "runtime"

// Yielding yields the processor to the Go scheduler on every idle tick.
type Yielding struct {
	NoOpReset
}

func (Yielding) Idle() {
	runtime.Gosched()
}

func (Yielding) Alias() string { return "yielding" }
