package idlestrategy

import (
	"runtime"
	"time"
)

// cacheLinePad is wide enough to occupy a full cache line on essentially
// every common architecture. Backoff sandwiches its mutable hot fields
// between two of these so that false sharing with whatever the allocator
// places immediately before or after a Backoff value cannot distort the
// spin/yield/park timing it's trying to measure and control.
const cacheLinePad = 64

type backoffState int

const (
	stateNotIdle backoffState = iota
	stateSpinning
	stateYielding
	statePark
)

// Backoff is a four-state progressive idle strategy: spin, then yield,
// then park for an exponentially increasing period capped at maxPark.
// Any Idle() call after a Reset() restarts the sequence from the
// beginning. Reset is the only way out of the parking state.
type Backoff struct {
	maxSpins  int
	maxYields int
	minPark   time.Duration
	maxPark   time.Duration

	_pad0 [cacheLinePad]byte

	state      backoffState
	spins      int
	yields     int
	parkPeriod time.Duration

	_pad1 [cacheLinePad]byte
}

// NewBackoff constructs a Backoff with explicit thresholds: spin up to
// maxSpins times, then yield up to maxYields times, then park starting at
// minPark and doubling (capped at maxPark) on every further idle call.
func NewBackoff(maxSpins, maxYields int, minPark, maxPark time.Duration) *Backoff {
	return &Backoff{
		maxSpins:  maxSpins,
		maxYields: maxYields,
		minPark:   minPark,
		maxPark:   maxPark,
	}
}

// NewDefaultBackoff constructs a Backoff with the spec-mandated defaults:
// 10 spins, 5 yields, parking from 1µs up to 1ms.
func NewDefaultBackoff() *Backoff {
	return NewBackoff(10, 5, time.Microsecond, time.Millisecond)
}

// Idle advances the state machine by exactly one step.
func (b *Backoff) Idle() {
	switch b.state {
	case stateNotIdle:
		b.spins = 1
		b.state = stateSpinning

	case stateSpinning:
		for i := 0; i < spinRelaxIterations; i++ {
		}
		b.spins++
		if b.spins > b.maxSpins {
			b.state = stateYielding
			b.yields = 0
		}

	case stateYielding:
		b.yields++
		if b.yields > b.maxYields {
			b.state = statePark
			b.parkPeriod = b.minPark
		} else {
			runtime.Gosched()
		}

	case statePark:
		Park(b.parkPeriod)
		next := b.parkPeriod * 2
		if next > b.maxPark {
			next = b.maxPark
		}
		b.parkPeriod = next
	}
}

// Reset drops the state machine back to NOT_IDLE with the spin and yield
// counters cleared and the park period set to minPark. (A freshly
// constructed Backoff reports a park period of 0 until it first parks.)
func (b *Backoff) Reset() {
	b.state = stateNotIdle
	b.spins = 0
	b.yields = 0
	b.parkPeriod = b.minPark
}

func (b *Backoff) Alias() string { return "backoff" }

// State, Spins, Yields, and ParkPeriod expose the internal state machine
// for tests and diagnostics; they are not part of the Strategy contract.
func (b *Backoff) State() string {
	switch b.state {
	case stateNotIdle:
		return "NOT_IDLE"
	case stateSpinning:
		return "SPINNING"
	case stateYielding:
		return "YIELDING"
	case statePark:
		return "PARKING"
	default:
		return "UNKNOWN"
	}
}

func (b *Backoff) Spins() int { return b.spins }

func (b *Backoff) Yields() int { return b.yields }

func (b *Backoff) ParkPeriod() time.Duration { return b.parkPeriod }
