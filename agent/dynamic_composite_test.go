package agent_test

import (
	"errors"
	"testing"

	"github.com/aixgo-dev/agentrt/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicCompositeTryAddOutsideActiveFails(t *testing.T) {
	d := agent.NewDynamicComposite("dyn")
	a := &fakeAgent{name: "a"}

	ok := d.TryAdd(a)
	assert.False(t, ok)
	assert.ErrorIs(t, d.TryAddErr(), agent.ErrPrecondition)
}

func TestDynamicCompositeAddLifecycle(t *testing.T) {
	a := &fakeAgent{name: "a", workCount: 1}
	b := &fakeAgent{name: "b", workCount: 1}
	d := agent.NewDynamicComposite("dyn", a)

	require.NoError(t, d.OnStart())
	assert.Equal(t, agent.DynamicActive, d.Status())
	assert.Equal(t, 1, a.startCalled)

	ok := d.TryAdd(b)
	require.True(t, ok)
	assert.False(t, d.HasAddCompleted())

	n, err := d.DoWork()
	require.NoError(t, err)
	assert.Equal(t, 2, n) // a=1 + b=1, both ran this tick
	assert.True(t, d.HasAddCompleted())
	assert.Equal(t, 1, b.startCalled)
}

func TestDynamicCompositeRemoveLifecycle(t *testing.T) {
	a := &fakeAgent{name: "a", workCount: 1}
	b := &fakeAgent{name: "b", workCount: 2}
	d := agent.NewDynamicComposite("dyn", a, b)
	require.NoError(t, d.OnStart())

	ok := d.TryRemove(a)
	require.True(t, ok)

	n, err := d.DoWork()
	require.NoError(t, err)
	assert.Equal(t, 2, n) // only b ran, a was removed before its tick
	assert.True(t, d.HasRemoveCompleted())
	assert.Equal(t, 1, a.closeCalled)
}

func TestDynamicCompositeRemoveErasesAgentEvenWhenOnCloseFails(t *testing.T) {
	failErr := errors.New("close failed")
	a := &fakeAgent{name: "a", workCount: 1, onCloseErr: failErr}
	b := &fakeAgent{name: "b", workCount: 2}
	d := agent.NewDynamicComposite("dyn", a, b)
	require.NoError(t, d.OnStart())

	require.True(t, d.TryRemove(a))

	_, err := d.DoWork()
	assert.ErrorIs(t, err, failErr)
	assert.True(t, d.HasRemoveCompleted())
	assert.Equal(t, 1, a.closeCalled)

	// a is erased despite the failed close, so it is never ticked again.
	n2, err2 := d.DoWork()
	require.NoError(t, err2)
	assert.Equal(t, 2, n2)
}

func TestDynamicCompositeFailedAddStillAppliesPendingRemove(t *testing.T) {
	startErr := errors.New("start failed")
	keep := &fakeAgent{name: "keep", workCount: 1}
	oldAgent := &fakeAgent{name: "old", workCount: 2}
	newAgent := &fakeAgent{name: "new", onStartErr: startErr}
	d := agent.NewDynamicComposite("dyn", keep, oldAgent)
	require.NoError(t, d.OnStart())

	require.True(t, d.TryAdd(newAgent))
	require.True(t, d.TryRemove(oldAgent))

	_, err := d.DoWork()
	assert.Error(t, err)
	assert.True(t, d.HasAddCompleted())
	assert.True(t, d.HasRemoveCompleted())
	assert.Equal(t, 1, oldAgent.closeCalled)

	// oldAgent is erased despite the concurrent add failure, so only
	// keep's work shows up on the next tick.
	n, err2 := d.DoWork()
	require.NoError(t, err2)
	assert.Equal(t, 1, n)
}

func TestDynamicCompositeSingleSlotRejectsSecondPendingAdd(t *testing.T) {
	a := &fakeAgent{name: "a"}
	b := &fakeAgent{name: "b"}
	c := &fakeAgent{name: "c"}
	d := agent.NewDynamicComposite("dyn", a)
	require.NoError(t, d.OnStart())

	require.True(t, d.TryAdd(b))
	assert.False(t, d.TryAdd(c))
}

func TestDynamicCompositeOnCloseClosesRemaining(t *testing.T) {
	a := &fakeAgent{name: "a"}
	b := &fakeAgent{name: "b"}
	d := agent.NewDynamicComposite("dyn", a, b)
	require.NoError(t, d.OnStart())

	require.NoError(t, d.OnClose())
	assert.Equal(t, agent.DynamicClosed, d.Status())
	assert.Equal(t, 1, a.closeCalled)
	assert.Equal(t, 1, b.closeCalled)
	assert.True(t, d.HasAddCompleted())
	assert.True(t, d.HasRemoveCompleted())
}
