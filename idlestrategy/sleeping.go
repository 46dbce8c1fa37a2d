package idlestrategy

import (
	"fmt"
	"time"

	"github.com/aixgo-dev/agentrt/agent"
)

// maxSleepingNs is the constructor ceiling for NewSleepingNs: periods at
// or above one second are rejected as a precondition failure, per spec.
const maxSleepingNs = int64(time.Second)

// SleepingNs parks for a fixed nanosecond period on every idle tick.
type SleepingNs struct {
	NoOpReset
	period time.Duration
}

// NewSleepingNs constructs a SleepingNs strategy. nanos must be less than
// one second (1_000_000_000); equal-to or greater-than is rejected.
func NewSleepingNs(nanos int64) (*SleepingNs, error) {
	if nanos >= maxSleepingNs {
		return nil, fmt.Errorf("%w: sleeping period must be < 1 second, got %dns", agent.ErrPrecondition, nanos)
	}
	return &SleepingNs{period: time.Duration(nanos)}, nil
}

func (s *SleepingNs) Idle() { Park(s.period) }

func (s *SleepingNs) Alias() string { return "sleeping-ns" }

// SleepingMs parks for a fixed millisecond period on every idle tick.
type SleepingMs struct {
	NoOpReset
	period time.Duration
}

// NewSleepingMs constructs a SleepingMs strategy. Unlike NewSleepingNs
// there is no upper bound — a multi-second idle tick is a legitimate
// choice at millisecond granularity.
func NewSleepingMs(millis int64) *SleepingMs {
	return &SleepingMs{period: time.Duration(millis) * time.Millisecond}
}

func (s *SleepingMs) Idle() { Park(s.period) }

func (s *SleepingMs) Alias() string { return "sleeping-ms" }
