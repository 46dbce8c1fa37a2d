package idlestrategy

import (
	"runtime"
	"sync/atomic"
	"time"
)

// controllableParkPeriod is the fixed park period Controllable uses in
// Park mode (and in NotControlled mode, which falls through to Park).
const controllableParkPeriod = time.Microsecond

// ControllableMode is the externally-mutable indicator a Controllable
// strategy reads on every Idle call. It is held outside the strategy by
// design — a supervisor goroutine can change a worker's idle behavior
// without synchronizing with the worker itself, beyond the
// release/acquire pair this type provides.
type ControllableMode struct {
	v atomic.Int32
}

const (
	// NotControlled falls through to Park behavior.
	NotControlled int32 = iota
	Noop
	BusySpinMode
	YieldMode
	ParkMode
)

// Set stores mode with release semantics.
func (m *ControllableMode) Set(mode int32) { m.v.Store(mode) }

// Get loads the current mode with acquire semantics.
func (m *ControllableMode) Get() int32 { return m.v.Load() }

// Controllable dispatches Idle to one of {no-op, busy-spin, yield, park}
// based on a ControllableMode read fresh on every call. It carries no
// mutable state of its own beyond the shared indicator, so Reset is a
// no-op.
type Controllable struct {
	NoOpReset
	mode *ControllableMode
}

// NewControllable builds a Controllable strategy reading mode on every
// Idle call. mode must not be nil.
func NewControllable(mode *ControllableMode) *Controllable {
	return &Controllable{mode: mode}
}

func (c *Controllable) Idle() {
	switch c.mode.Get() {
	case Noop:
		return
	case BusySpinMode:
		for i := 0; i < spinRelaxIterations; i++ {
		}
	case YieldMode:
		runtime.Gosched()
	case ParkMode, NotControlled:
		fallthrough
	default:
		Park(controllableParkPeriod)
	}
}

func (c *Controllable) Alias() string { return "controllable" }
