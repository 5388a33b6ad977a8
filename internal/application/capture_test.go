package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"body-scan/internal/domain/entity"
)

func TestCapturePipeline_BuildsRecord(t *testing.T) {
	p := NewCapturePipeline(DefaultCaptureConfig(), &fakeEncoder{})
	lm := frontPose()

	rec, err := p.Capture(entity.PhaseSideUpper, testFrame(3), lm, false)
	require.NoError(t, err)
	require.Equal(t, entity.PhaseSideUpper, rec.Phase)
	require.Equal(t, 64, rec.Width)
	require.Equal(t, 48, rec.Height)
	require.NotEmpty(t, rec.Image)

	lm[0].X = 0
	require.Equal(t, 0.5, rec.Landmarks[0].X)
}

func TestCapturePipeline_Errors(t *testing.T) {
	_, err := NewCapturePipeline(DefaultCaptureConfig(), nil).Capture(entity.PhaseFaceNeck, testFrame(1), nil, true)
	require.Error(t, err)

	p := NewCapturePipeline(DefaultCaptureConfig(), &fakeEncoder{})
	_, err = p.Capture(entity.PhaseFaceNeck, nil, nil, true)
	require.ErrorIs(t, err, entity.ErrNoFrame)
	_, err = p.Capture(entity.PhaseFaceNeck, &entity.Frame{}, nil, true)
	require.ErrorIs(t, err, entity.ErrNoFrame)

	p = NewCapturePipeline(DefaultCaptureConfig(), &fakeEncoder{err: errBoom})
	_, err = p.Capture(entity.PhaseFaceNeck, testFrame(1), nil, true)
	require.ErrorIs(t, err, errBoom)
}
