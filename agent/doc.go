// Package agent defines the lifecycle contract that every worker scheduled
// by an agentrunner.Runner or agentinvoker.Invoker must implement, plus the
// error-sink and composition primitives built on top of that contract.
package agent
