package idlestrategy_test

import (
	"testing"

	"github.com/aixgo-dev/agentrt/agent"
	"github.com/aixgo-dev/agentrt/idlestrategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSleepingNsRejectsOneSecond(t *testing.T) {
	s, err := idlestrategy.NewSleepingNs(1_000_000_000)
	assert.Nil(t, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrPrecondition)
}

func TestNewSleepingNsAcceptsJustUnderOneSecond(t *testing.T) {
	s, err := idlestrategy.NewSleepingNs(999_999_999)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestNewSleepingNsAcceptsSmallPeriod(t *testing.T) {
	s, err := idlestrategy.NewSleepingNs(1)
	require.NoError(t, err)
	s.Idle() // should return promptly, not block the test suite
}

func TestSleepingMsHasNoUpperBound(t *testing.T) {
	s := idlestrategy.NewSleepingMs(0)
	s.Idle()
	assert.Equal(t, "sleeping-ms", s.Alias())
}
