// Package agentrunner spawns and owns the goroutine that drives an
// agent.Agent's full lifecycle — OnStart, repeated DoWork/idle duty
// cycles, OnClose — and supports safe external shutdown.
package agentrunner
