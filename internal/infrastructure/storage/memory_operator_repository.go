package storage

import (
	"context"
	"sort"
	"sync"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// MemoryOperatorRepository in-memory хранилище операторов
type MemoryOperatorRepository struct {
	mu        sync.RWMutex
	operators map[int64]*entity.Operator
}

// NewMemoryOperatorRepository создаёт новое in-memory хранилище
func NewMemoryOperatorRepository() *MemoryOperatorRepository {
	return &MemoryOperatorRepository{
		operators: make(map[int64]*entity.Operator),
	}
}

// Get возвращает оператора по ID, создаёт нового если не найден
func (r *MemoryOperatorRepository) Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if op, exists := r.operators[userID]; exists {
		copied := *op
		return &copied, nil
	}

	op := entity.NewOperator(userID, chatID)
	r.operators[userID] = op

	copied := *op
	return &copied, nil
}

// Save сохраняет состояние оператора
func (r *MemoryOperatorRepository) Save(ctx context.Context, operator *entity.Operator) error {
	copied := *operator

	r.mu.Lock()
	r.operators[operator.ID] = &copied
	r.mu.Unlock()

	return nil
}

// Subscribers операторы с активной подпиской, по возрастанию ID
func (r *MemoryOperatorRepository) Subscribers(ctx context.Context) ([]*entity.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entity.Operator
	for _, op := range r.operators {
		if op.Subscribed() {
			copied := *op
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Проверка реализации интерфейса
var _ port.OperatorRepository = (*MemoryOperatorRepository)(nil)
