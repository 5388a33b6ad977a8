package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// ErrSessionNotFound сессия с таким ID не сохранялась.
var ErrSessionNotFound = errors.New("scan session not found")

// MemorySessionRepository in-memory хранилище запечатанных сессий
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.ScanSession
	latest   string
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*entity.ScanSession),
	}
}

// Save сохраняет сессию. Открытые сессии не принимаются
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.ScanSession) error {
	if session == nil || !session.Sealed() {
		return fmt.Errorf("only sealed sessions can be stored")
	}

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.latest = session.ID
	r.mu.Unlock()

	return nil
}

// Get возвращает сессию по ID
func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*entity.ScanSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Latest возвращает последнюю сохранённую сессию
func (r *MemorySessionRepository) Latest(ctx context.Context) (*entity.ScanSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.latest == "" {
		return nil, ErrSessionNotFound
	}
	return r.sessions[r.latest], nil
}

// HandleSession сохраняет сессию при завершении сканирования
func (r *MemorySessionRepository) HandleSession(ctx context.Context, session *entity.ScanSession) error {
	return r.Save(ctx, session)
}

// Проверка реализации интерфейса
var (
	_ port.SessionRepository = (*MemorySessionRepository)(nil)
	_ port.SessionHandler    = (*MemorySessionRepository)(nil)
)
