package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhase_Order(t *testing.T) {
	require.Equal(t, PhaseFaceNeck, FirstPhase())
	require.Equal(t, PhaseBackLower, TerminalCapturePhase())
	require.Equal(t, []Phase{
		PhaseFaceNeck, PhaseFrontUpper, PhaseFrontLower,
		PhaseSideUpper, PhaseSideLower, PhaseBackUpper, PhaseBackLower,
	}, CapturePhases())

	p := FirstPhase()
	for i, want := range CapturePhases() {
		require.Equal(t, want, p)
		require.Equal(t, i, p.Index())
		p = p.Next()
	}
	require.Equal(t, PhaseComplete, p)
	require.Equal(t, PhaseComplete, p.Next())
	require.True(t, p.IsTerminal())
}

func TestPhase_Categories(t *testing.T) {
	require.Equal(t, CategoryFace, PhaseFaceNeck.Category())
	require.Equal(t, CategoryUpper, PhaseSideUpper.Category())
	require.Equal(t, CategoryLower, PhaseBackLower.Category())
	require.Equal(t, OrientationSide, PhaseSideLower.Orientation())
	require.Equal(t, OrientationBack, PhaseBackUpper.Orientation())
	require.Equal(t, OrientationFront, PhaseFrontLower.Orientation())
}

func TestPhase_Unknown(t *testing.T) {
	p := Phase("spin")
	require.False(t, p.Valid())
	require.Equal(t, -1, p.Index())
	require.NotEmpty(t, PhaseFaceNeck.Label())
}

func TestCapturePhases_ReturnsCopy(t *testing.T) {
	phases := CapturePhases()
	phases[0] = PhaseComplete
	require.Equal(t, PhaseFaceNeck, CapturePhases()[0])
}
