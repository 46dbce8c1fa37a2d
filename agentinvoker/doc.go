// Package agentinvoker provides Invoker, a task-less driver for a single
// agent.Agent that runs entirely on its caller's goroutine. Unlike
// agentrunner.Runner, it never idles and never spawns a goroutine: the
// caller decides when and how often to call Invoke, which makes Invoker
// the right fit for agents cooperatively scheduled alongside other work
// on a shared thread (for example, driven by an existing event loop or a
// test harness stepping the agent deterministically).
package agentinvoker
