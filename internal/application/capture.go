package app

import (
	"errors"
	"fmt"
	"time"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// CaptureConfig ограничения на размер снимка.
type CaptureConfig struct {
	MaxDimension int `toml:"max_dimension"`
	JPEGQuality  int `toml:"jpeg_quality"`
}

// DefaultCaptureConfig стандартный размер снимка.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{MaxDimension: 1024, JPEGQuality: 85}
}

// CapturePipeline превращает отрисованный кадр в запись этапа.
type CapturePipeline struct {
	cfg     CaptureConfig
	encoder port.ImageEncoder
	now     func() time.Time
}

// NewCapturePipeline создаёт конвейер съёмки.
func NewCapturePipeline(cfg CaptureConfig, encoder port.ImageEncoder) *CapturePipeline {
	return &CapturePipeline{cfg: cfg, encoder: encoder, now: time.Now}
}

// Capture уменьшает и сжимает кадр и собирает запись этапа.
func (p *CapturePipeline) Capture(phase entity.Phase, frame *entity.Frame, landmarks entity.PoseFrame, manual bool) (*entity.CaptureRecord, error) {
	if p.encoder == nil {
		return nil, errors.New("image encoder is not configured")
	}
	if frame == nil || frame.Image == nil {
		return nil, entity.ErrNoFrame
	}

	encoded, err := p.encoder.Encode(frame.Image, p.cfg.MaxDimension, p.cfg.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot: %w", phase, err)
	}

	return entity.NewCaptureRecord(phase, landmarks, encoded.Data, encoded.Width, encoded.Height, manual, p.now()), nil
}
