package agentinvoker_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/aixgo-dev/agentrt/agent"
	"github.com/aixgo-dev/agentrt/agentinvoker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type steppedCounter struct {
	agent.Base
	count      atomic.Int64
	startCalls atomic.Int64
	closeCalls atomic.Int64
	terminateAt int64
}

func (c *steppedCounter) Name() string { return "stepped-counter" }

func (c *steppedCounter) OnStart() error {
	c.startCalls.Add(1)
	return nil
}

func (c *steppedCounter) DoWork() (int, error) {
	n := c.count.Add(1)
	if c.terminateAt != 0 && n == c.terminateAt {
		return 1, agent.ErrTermination
	}
	return 1, nil
}

func (c *steppedCounter) OnClose() error {
	c.closeCalls.Add(1)
	return nil
}

func TestInvokerInvokeBeforeStartReturnsZero(t *testing.T) {
	iv := agentinvoker.New(&steppedCounter{})
	assert.Equal(t, 0, iv.Invoke())
}

func TestInvokerStepsOneTickPerInvoke(t *testing.T) {
	a := &steppedCounter{}
	iv := agentinvoker.New(a)

	require.NoError(t, iv.Start())
	assert.True(t, iv.IsRunning())

	for i := 0; i < 5; i++ {
		n := iv.Invoke()
		assert.Equal(t, 1, n)
	}
	assert.Equal(t, int64(5), a.count.Load())
	assert.False(t, iv.IsClosed())
}

func TestInvokerTerminationClosesAndStopsAcceptingWork(t *testing.T) {
	a := &steppedCounter{terminateAt: 3}
	iv := agentinvoker.New(a)

	require.NoError(t, iv.Start())
	assert.Equal(t, 1, iv.Invoke())
	assert.Equal(t, 1, iv.Invoke())
	assert.Equal(t, 0, iv.Invoke()) // third tick raises termination

	assert.True(t, iv.IsClosed())
	assert.False(t, iv.IsRunning())
	assert.Equal(t, int64(1), a.closeCalls.Load())

	// further Invoke calls are no-ops
	assert.Equal(t, 0, iv.Invoke())
	assert.Equal(t, int64(3), a.count.Load())
}

func TestInvokerDoubleStartRejected(t *testing.T) {
	iv := agentinvoker.New(&steppedCounter{})
	require.NoError(t, iv.Start())
	err := iv.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrPrecondition)
}

func TestInvokerCloseIsIdempotent(t *testing.T) {
	a := &steppedCounter{}
	iv := agentinvoker.New(a)
	require.NoError(t, iv.Start())

	require.NoError(t, iv.Close())
	require.NoError(t, iv.Close())
	assert.Equal(t, int64(1), a.closeCalls.Load())
}

type failingOnceAgent struct {
	agent.Base
	onErrorCalls atomic.Int64
	failed       atomic.Bool
}

func (a *failingOnceAgent) Name() string { return "failing-once" }

func (a *failingOnceAgent) DoWork() (int, error) {
	if a.failed.CompareAndSwap(false, true) {
		return 0, errors.New("transient failure")
	}
	return 1, nil
}

func (a *failingOnceAgent) OnError(err error) {
	a.onErrorCalls.Add(1)
}

func TestInvokerHandlerTriggeredShutdown(t *testing.T) {
	a := &failingOnceAgent{}
	counter := &agent.ErrorCount{}
	handler := agent.ErrorHandler(func(ag agent.Agent, err error) {
		panic(agent.ErrTermination)
	})

	iv := agentinvoker.New(a,
		agentinvoker.WithErrorHandler(handler),
		agentinvoker.WithErrorCount(counter),
	)

	require.NoError(t, iv.Start())
	n := iv.Invoke()

	assert.Equal(t, 0, n)
	assert.True(t, iv.IsClosed())
	assert.Equal(t, int64(1), counter.Load())
	assert.Equal(t, int64(1), a.onErrorCalls.Load())
}

// defaultEscalatingAgent never overrides OnError, so a DoWork failure
// escalates via agent.Base's default panic — a non-termination error,
// unlike failingOnceAgent's absorbed one.
type defaultEscalatingAgent struct {
	agent.Base
	closeCalls atomic.Int64
}

func (a *defaultEscalatingAgent) Name() string { return "default-escalating" }

func (a *defaultEscalatingAgent) DoWork() (int, error) {
	return 0, errors.New("boom")
}

func (a *defaultEscalatingAgent) OnClose() error {
	a.closeCalls.Add(1)
	return nil
}

func TestInvokerDefaultOnErrorEscalationClosesWithoutPanicking(t *testing.T) {
	a := &defaultEscalatingAgent{}
	iv := agentinvoker.New(a)

	require.NoError(t, iv.Start())
	assert.Equal(t, 0, iv.Invoke())

	assert.True(t, iv.IsClosed())
	assert.Equal(t, int64(1), a.closeCalls.Load())
}

func TestInvokerNonTerminatingErrorContinues(t *testing.T) {
	a := &failingOnceAgent{}
	iv := agentinvoker.New(a)

	require.NoError(t, iv.Start())
	assert.Equal(t, 0, iv.Invoke()) // first tick fails, handled, continues
	assert.True(t, iv.IsRunning())
	assert.Equal(t, 1, iv.Invoke()) // second tick succeeds
	assert.Equal(t, int64(1), a.onErrorCalls.Load())
}
