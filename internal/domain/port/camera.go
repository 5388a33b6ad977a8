package port

import (
	"context"

	"body-scan/internal/domain/entity"
)

// DeviceEnumerator интерфейс перечисления камер
type DeviceEnumerator interface {
	// List возвращает доступные камеры в стабильном порядке
	List(ctx context.Context) ([]entity.DeviceDescriptor, error)
}

// Camera интерфейс захвата видеопотока
type Camera interface {
	// Open захватывает поток выбранного устройства в монопольное владение
	Open(ctx context.Context, device entity.DeviceDescriptor) (VideoStream, error)
}

// VideoStream открытый видеопоток
type VideoStream interface {
	// Read возвращает текущий кадр
	Read(ctx context.Context) (*entity.Frame, error)

	// Close освобождает устройство. Повторный вызов безопасен
	Close() error
}
