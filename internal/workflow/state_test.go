package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseTransitionsFollowTheMachine(t *testing.T) {
	state := newState("run-1", "AAPL", time.Now())
	chain := []Phase{
		PhaseAcquisition, PhaseRegime, PhaseAnalysts,
		PhaseResearchDebate, PhaseResearchVerdict,
		PhaseTrading, PhaseRiskDebate, PhaseRiskVerdict, PhaseDone,
	}

	for _, next := range chain {
		require.NoError(t, state.advanceTo(next))
	}
	assert.True(t, state.Phase.Terminal())
}

func TestPhaseTransitionRejectsSkips(t *testing.T) {
	state := newState("run-1", "AAPL", time.Now())

	require.Error(t, state.advanceTo(PhaseAnalysts))
	require.Error(t, state.advanceTo(PhaseDone))
	assert.Equal(t, PhaseInit, state.Phase)
}

func TestAnyActivePhaseMayFail(t *testing.T) {
	assert.True(t, canTransition(PhaseInit, PhaseFailed))
	assert.True(t, canTransition(PhaseRiskVerdict, PhaseFailed))
	assert.False(t, canTransition(PhaseDone, PhaseFailed))
	assert.False(t, canTransition(PhaseFailed, PhaseFailed))
}
