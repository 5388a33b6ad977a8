package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// EngineConfig окно ожидания готовности движка позы.
type EngineConfig struct {
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultEngineConfig 50 попыток по 100 мс.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{PollInterval: 100 * time.Millisecond, MaxAttempts: 50}
}

// InitializeEstimator ждёт готовности движка с фиксированным интервалом и ограниченным числом попыток.
func InitializeEstimator(ctx context.Context, connector port.EstimatorConnector, cfg EngineConfig, logger zerolog.Logger) (port.PoseEstimator, error) {
	attempts := max(cfg.MaxAttempts, 1)
	log := logger.With().Str("component", "pose-engine").Logger()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		estimator, err := connector.Connect(ctx)
		if err == nil {
			log.Info().Int("attempt", attempt).Msg("pose engine ready")
			return estimator, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Msg("pose engine not ready")

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, &entity.EngineUnavailableError{Attempts: attempts, Cause: lastErr}
}
