package agent

import (
	"fmt"
	"strings"
)

// Composite is an Agent whose work delegates, in construction order, to a
// fixed, non-empty sequence of sub-agents sharing one thread. Its own
// Name is a bracketed comma-joined list of the sub-agent names.
type Composite struct {
	name   string
	agents []Agent
}

// NewComposite builds a Composite from one or more sub-agents. It is a
// precondition failure to pass zero agents.
func NewComposite(agents ...Agent) (*Composite, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: composite agent requires at least one sub-agent", ErrPrecondition)
	}
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name()
	}
	return &Composite{
		name:   "[" + strings.Join(names, ",") + "]",
		agents: append([]Agent(nil), agents...),
	}, nil
}

// Name returns "[sub1,sub2,...]".
func (c *Composite) Name() string { return c.name }

// Agents returns the sub-agents in construction order. The returned slice
// must not be mutated.
func (c *Composite) Agents() []Agent { return c.agents }

// OnStart calls every sub-agent's OnStart in order, even after an earlier
// one fails, then reports every collected failure as a single
// AggregateError.
func (c *Composite) OnStart() error {
	errs := make([]error, len(c.agents))
	for i, a := range c.agents {
		errs[i] = a.OnStart()
	}
	return newAggregateError(errs)
}

// DoWork calls every sub-agent's DoWork in order and returns the sum of
// their (clamped) work counts. A sub-agent error is returned immediately
// without being aggregated — it propagates to the owning Runner/Invoker's
// error sink, matching the rest of the sub-agents not running this tick.
func (c *Composite) DoWork() (int, error) {
	total := 0
	for _, a := range c.agents {
		n, err := a.DoWork()
		if err != nil {
			return total, err
		}
		total += ClampWork(n)
	}
	return total, nil
}

// OnClose calls every sub-agent's OnClose, even after an earlier one
// fails, then reports every collected failure as a single AggregateError.
func (c *Composite) OnClose() error {
	errs := make([]error, len(c.agents))
	for i, a := range c.agents {
		errs[i] = a.OnClose()
	}
	return newAggregateError(errs)
}

// OnError escalates by default; Composite does not intercept sub-agent
// errors from DoWork (those propagate to the owning Runner/Invoker), so
// OnError is only reached for a failure attributed to the composite
// itself, which should not normally happen.
func (c *Composite) OnError(err error) {
	(Base{}).OnError(err)
}
