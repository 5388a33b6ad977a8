package port

import (
	"context"
	"errors"

	"body-scan/internal/domain/entity"
)

// ErrEngineNotReady движок позы ещё загружается, подключение стоит повторить
var ErrEngineNotReady = errors.New("pose engine is not ready")

// EstimatorConnector подключение к внешнему движку оценки позы
type EstimatorConnector interface {
	// Connect возвращает готовый дескриптор или ErrEngineNotReady
	Connect(ctx context.Context) (PoseEstimator, error)
}

// PoseEstimator дескриптор движка оценки позы
type PoseEstimator interface {
	// Estimate возвращает суставы для кадра. Пустой результат означает, что тело не найдено
	Estimate(ctx context.Context, frame *entity.Frame) (entity.PoseFrame, error)

	// Close освобождает ресурсы движка. Повторный вызов безопасен
	Close() error
}
