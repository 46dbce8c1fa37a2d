package agent_test

import (
	"errors"
	"testing"

	"github.com/aixgo-dev/agentrt/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	agent.Base
	name        string
	workCount   int
	workErr     error
	onStartErr  error
	onCloseErr  error
	startCalled int
	closeCalled int
}

func (a *fakeAgent) Name() string { return a.name }

func (a *fakeAgent) OnStart() error {
	a.startCalled++
	return a.onStartErr
}

func (a *fakeAgent) DoWork() (int, error) {
	return a.workCount, a.workErr
}

func (a *fakeAgent) OnClose() error {
	a.closeCalled++
	return a.onCloseErr
}

func TestNewCompositeRejectsEmpty(t *testing.T) {
	c, err := agent.NewComposite()
	assert.Nil(t, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrPrecondition)
}

func TestCompositeName(t *testing.T) {
	a1 := &fakeAgent{name: "a"}
	a2 := &fakeAgent{name: "b"}
	c, err := agent.NewComposite(a1, a2)
	require.NoError(t, err)
	assert.Equal(t, "[a,b]", c.Name())
}

func TestCompositeDoWorkSumsInOrder(t *testing.T) {
	a1 := &fakeAgent{name: "a", workCount: 2}
	a2 := &fakeAgent{name: "b", workCount: 3}
	c, err := agent.NewComposite(a1, a2)
	require.NoError(t, err)

	n, err := c.DoWork()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestCompositeDoWorkPropagatesErrorImmediately(t *testing.T) {
	boom := errors.New("boom")
	a1 := &fakeAgent{name: "a", workCount: 2, workErr: boom}
	a2 := &fakeAgent{name: "b", workCount: 3}
	c, err := agent.NewComposite(a1, a2)
	require.NoError(t, err)

	n, err := c.DoWork()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, n)
}

func TestCompositeOnStartAggregatesAllFailuresAndAttemptsAll(t *testing.T) {
	err1 := errors.New("a failed")
	err2 := errors.New("c failed")
	a1 := &fakeAgent{name: "a", onStartErr: err1}
	a2 := &fakeAgent{name: "b"}
	a3 := &fakeAgent{name: "c", onStartErr: err2}
	c, err := agent.NewComposite(a1, a2, a3)
	require.NoError(t, err)

	startErr := c.OnStart()
	require.Error(t, startErr)

	var agg *agent.AggregateError
	require.ErrorAs(t, startErr, &agg)
	assert.Len(t, agg.Errs, 2)

	assert.Equal(t, 1, a1.startCalled)
	assert.Equal(t, 1, a2.startCalled)
	assert.Equal(t, 1, a3.startCalled)
}

func TestCompositeOnCloseRunsAllEvenAfterFailure(t *testing.T) {
	err1 := errors.New("a close failed")
	err2 := errors.New("b close failed")
	a1 := &fakeAgent{name: "a", onCloseErr: err1}
	a2 := &fakeAgent{name: "b", onCloseErr: err2}
	c, err := agent.NewComposite(a1, a2)
	require.NoError(t, err)

	closeErr := c.OnClose()
	require.Error(t, closeErr)

	var agg *agent.AggregateError
	require.ErrorAs(t, closeErr, &agg)
	assert.Len(t, agg.Errs, 2)
	assert.Equal(t, 1, a1.closeCalled)
	assert.Equal(t, 1, a2.closeCalled)
}
