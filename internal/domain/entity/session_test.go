package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func record(phase Phase) *CaptureRecord {
	return NewCaptureRecord(phase, PoseFrame{{X: 0.5, Visibility: 1}}, []byte{1, 2, 3}, 4, 3, false, time.Now())
}

func TestScanSession_AddOncePerPhase(t *testing.T) {
	s := NewScanSession("s", time.Now())

	require.NoError(t, s.Add(record(PhaseFaceNeck)))
	err := s.Add(record(PhaseFaceNeck))
	require.ErrorIs(t, err, ErrPhaseCaptured)

	require.Error(t, s.Add(nil))
	require.Error(t, s.Add(record(PhaseComplete)))
	require.Error(t, s.Add(record(Phase("spin"))))
	require.Equal(t, 1, s.Len())
}

func TestScanSession_SealRequiresTerminalCapture(t *testing.T) {
	s := NewScanSession("s", time.Now())
	require.Error(t, s.Seal(time.Now()))
	require.False(t, s.Sealed())

	require.NoError(t, s.Add(record(TerminalCapturePhase())))
	at := time.Now()
	require.NoError(t, s.Seal(at))
	require.True(t, s.Sealed())
	require.Equal(t, at, s.SealedAt())

	require.ErrorIs(t, s.Seal(time.Now()), ErrSessionSealed)
	require.ErrorIs(t, s.Add(record(PhaseFaceNeck)), ErrSessionSealed)
}

func TestScanSession_RecordsInPhaseOrder(t *testing.T) {
	s := NewScanSession("s", time.Now())
	require.NoError(t, s.Add(record(PhaseBackLower)))
	require.NoError(t, s.Add(record(PhaseFaceNeck)))
	require.NoError(t, s.Add(record(PhaseSideUpper)))

	var got []Phase
	for _, rec := range s.Records() {
		got = append(got, rec.Phase)
	}
	require.Equal(t, []Phase{PhaseFaceNeck, PhaseSideUpper, PhaseBackLower}, got)
	require.Equal(t, []Phase{PhaseFrontUpper, PhaseFrontLower, PhaseSideLower, PhaseBackUpper}, s.Missing())

	summary := s.Summary()
	require.Len(t, summary, len(CapturePhases()))
	require.True(t, summary[0].Captured)
	require.Equal(t, 1, summary[0].Landmarks)
	require.False(t, summary[1].Captured)
	require.Equal(t, PhaseFrontUpper.Label(), summary[1].Label)
}

func TestNewCaptureRecord_CopiesInputs(t *testing.T) {
	lm := PoseFrame{{X: 0.1}}
	img := []byte{9, 9}
	rec := NewCaptureRecord(PhaseFaceNeck, lm, img, 1, 1, true, time.Now())

	lm[0].X = 0.9
	img[0] = 0
	require.Equal(t, 0.1, rec.Landmarks[0].X)
	require.Equal(t, byte(9), rec.Image[0])

	empty := NewCaptureRecord(PhaseFaceNeck, nil, nil, 1, 1, true, time.Now())
	require.NotNil(t, empty.Landmarks)
	require.Empty(t, empty.Landmarks)
}

func TestScanSession_RecordsAreCopies(t *testing.T) {
	s := NewScanSession("s", time.Now())
	require.NoError(t, s.Add(record(PhaseFaceNeck)))

	got, ok := s.Record(PhaseFaceNeck)
	require.True(t, ok)
	got.Image[0] = 0xAA
	got.Landmarks[0].X = 0.9

	listed := s.Records()
	require.Len(t, listed, 1)
	listed[0].Image[1] = 0xBB

	again, ok := s.Record(PhaseFaceNeck)
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, again.Image)
	require.Equal(t, 0.5, again.Landmarks[0].X)

	_, ok = s.Record(PhaseBackLower)
	require.False(t, ok)
}
