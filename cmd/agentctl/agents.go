package main

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/aixgo-dev/agentrt/agent"
)

// builder constructs an agent that reports the given name.
// The registry is intentionally small: agentctl is a demonstration CLI,
// not a plugin host.
type builder func(name string) agent.Agent

var registry = map[string]builder{
	"counter": newCounterAgent,
}

func lookupBuilder(name string) (builder, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("agentctl: no built-in agent named %q (known: counter)", name)
	}
	return b, nil
}

// counterAgent counts its own duty cycles and terminates after 1000
// ticks, so "agentctl run" has something runnable out of the box.
type counterAgent struct {
	agent.Base
	name  string
	count atomic.Int64
}

func newCounterAgent(name string) agent.Agent {
	return &counterAgent{name: name}
}

func (c *counterAgent) Name() string { return c.name }

func (c *counterAgent) OnStart() error {
	log.Printf("%s: starting", c.name)
	return nil
}

func (c *counterAgent) DoWork() (int, error) {
	n := c.count.Add(1)
	if n >= 1000 {
		return 1, agent.ErrTermination
	}
	return 1, nil
}

func (c *counterAgent) OnClose() error {
	log.Printf("%s: stopped after %d ticks", c.name, c.count.Load())
	return nil
}
