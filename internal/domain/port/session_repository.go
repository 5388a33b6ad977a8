package port

import (
	"context"

	"body-scan/internal/domain/entity"
)

// SessionHandler получатель запечатанной сессии
type SessionHandler interface {
	// HandleSession вызывается один раз для каждой запечатанной сессии
	HandleSession(ctx context.Context, session *entity.ScanSession) error
}

// SessionRepository интерфейс хранилища запечатанных сессий
type SessionRepository interface {
	// Save сохраняет запечатанную сессию
	Save(ctx context.Context, session *entity.ScanSession) error

	// Get возвращает сессию по ID
	Get(ctx context.Context, id string) (*entity.ScanSession, error)

	// Latest возвращает последнюю сохранённую сессию
	Latest(ctx context.Context) (*entity.ScanSession, error)
}
