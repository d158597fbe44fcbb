package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdvanceHospitalPath(t *testing.T) {
	state, effect, err := advance(StateDrafting, EventSubmitHospital)
	require.NoError(t, err)
	require.Equal(t, StateCheckingAvailability, state)
	require.Equal(t, EffectRunCheck, effect)

	found, effect, err := advance(state, EventMatchesFound)
	require.NoError(t, err)
	require.Equal(t, StateAvailabilityFound, found)
	require.Equal(t, EffectReturnMatches, effect)

	posted, effect, err := advance(found, EventPostAnyway)
	require.NoError(t, err)
	require.Equal(t, StatePosted, posted)
	require.Equal(t, EffectCreatePost, effect)

	abandoned, effect, err := advance(StateAvailabilityFound, EventAbandon)
	require.NoError(t, err)
	require.Equal(t, StateAbandoned, abandoned)
	require.Equal(t, EffectNone, effect)
}

func TestAdvanceHospitalNoMatches(t *testing.T) {
	state, _, err := advance(StateDrafting, EventSubmitHospital)
	require.NoError(t, err)

	state, effect, err := advance(state, EventNoMatches)
	require.NoError(t, err)
	require.Equal(t, StateNoAvailability, state)
	require.Equal(t, EffectCreatePost, effect)
}

func TestAdvanceBloodBankSkipsCheck(t *testing.T) {
	state, effect, err := advance(StateDrafting, EventSubmitBloodBank)
	require.NoError(t, err)
	require.Equal(t, StatePosted, state)
	require.Equal(t, EffectCreatePost, effect)
}

func TestAdvanceIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		state, effect, err := advance(StateDrafting, EventSubmitHospital)
		require.NoError(t, err)
		require.Equal(t, StateCheckingAvailability, state)
		require.Equal(t, EffectRunCheck, effect)
	}
}

func TestAdvanceRejectsInvalidTransitions(t *testing.T) {
	cases := []struct {
		state WorkflowState
		event WorkflowEvent
	}{
		{StateDrafting, EventMatchesFound},
		{StateDrafting, EventPostAnyway},
		{StateCheckingAvailability, EventSubmitHospital},
		{StatePosted, EventPostAnyway},
		{StateAbandoned, EventSubmitHospital},
		{StateNoAvailability, EventPostAnyway},
	}

	for _, tc := range cases {
		_, _, err := advance(tc.state, tc.event)
		require.Error(t, err, "state=%s event=%s", tc.state, tc.event)
	}
}
