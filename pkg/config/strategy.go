package config

import (
	"fmt"

	"github.com/aixgo-dev/agentrt/agent"
	"github.com/aixgo-dev/agentrt/idlestrategy"
)

// BuildStrategy constructs the idlestrategy.Strategy named by ic. It is
// the bridge between the declarative config file and the concrete
// strategies cmd/agentctl wires into each Runner.
func BuildStrategy(ic IdleConfig) (idlestrategy.Strategy, error) {
	switch ic.Strategy {
	case "", "backoff":
		maxSpins, maxYields := ic.MaxSpins, ic.MaxYields
		minPark, maxPark := ic.MinPark.Dur(), ic.MaxPark.Dur()
		if maxSpins == 0 && maxYields == 0 && minPark == 0 && maxPark == 0 {
			return idlestrategy.NewDefaultBackoff(), nil
		}
		return idlestrategy.NewBackoff(maxSpins, maxYields, minPark, maxPark), nil
	case "noop":
		return idlestrategy.NoOp{}, nil
	case "busy-spin":
		return idlestrategy.BusySpin{}, nil
	case "yielding":
		return idlestrategy.Yielding{}, nil
	case "sleeping-ns":
		return idlestrategy.NewSleepingNs(int64(ic.SleepFor.Dur()))
	case "sleeping-ms":
		return idlestrategy.NewSleepingMs(ic.SleepFor.Dur().Milliseconds()), nil
	default:
		return nil, fmt.Errorf("%w: unknown idle strategy %q", agent.ErrPrecondition, ic.Strategy)
	}
}
