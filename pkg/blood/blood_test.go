package blood

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseNormalises(t *testing.T) {
	g, err := Parse(" o+ ")
	require.NoError(t, err)
	require.Equal(t, OPos, g)

	g, err = Parse("ab-")
	require.NoError(t, err)
	require.Equal(t, ABNeg, g)

	_, err = Parse("C+")
	require.Error(t, err)

	_, err = Parse("")
	require.Error(t, err)
}

func TestCompatibilityTable(t *testing.T) {
	// Universal donor and universal recipient.
	for _, g := range Groups {
		require.True(t, ONeg.CanDonateTo(g), "O- should donate to %s", g)
		require.True(t, g.CanDonateTo(ABPos), "%s should donate to AB+", g)
	}

	// Rh-negative blood never accepts Rh-positive.
	require.False(t, OPos.CanDonateTo(ONeg))
	require.False(t, APos.CanDonateTo(ANeg))
	require.False(t, ABPos.CanDonateTo(ABNeg))

	// ABO mismatches.
	require.False(t, APos.CanDonateTo(BPos))
	require.False(t, BNeg.CanDonateTo(ANeg))
	require.False(t, ABNeg.CanDonateTo(OPos))

	// Every group can donate to itself.
	for _, g := range Groups {
		require.True(t, g.CanDonateTo(g), "%s should donate to itself", g)
	}
}

func TestRecipientsReturnsCopy(t *testing.T) {
	first := APos.Recipients()
	require.ElementsMatch(t, []Group{APos, ABPos}, first)

	first[0] = ONeg
	require.ElementsMatch(t, []Group{APos, ABPos}, APos.Recipients())
}

func TestCompatibleDonors(t *testing.T) {
	require.ElementsMatch(t, Groups, CompatibleDonors(ABPos))
	require.ElementsMatch(t, []Group{ONeg}, CompatibleDonors(ONeg))
	require.ElementsMatch(t, []Group{ONeg, OPos, ANeg, APos}, CompatibleDonors(APos))
	require.ElementsMatch(t, []Group{ONeg, BNeg}, CompatibleDonors(BNeg))
}
