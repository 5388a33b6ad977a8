package app

import (
	"context"
	"errors"
	"sort"

	"body-scan/internal/domain/entity"
	"body-scan/internal/domain/port"
)

// ErrNotAuthorized чат не входит в список разрешённых.
var ErrNotAuthorized = errors.New("chat is not authorized")

type OperatorService struct {
	repo    port.OperatorRepository
	allowed map[int64]struct{}
}

// NewOperatorService пустой allowed разрешает любой чат.
func NewOperatorService(repo port.OperatorRepository, allowed ...int64) *OperatorService {
	s := &OperatorService{repo: repo, allowed: make(map[int64]struct{}, len(allowed))}
	for _, id := range allowed {
		if id != 0 {
			s.allowed[id] = struct{}{}
		}
	}
	return s
}

func (s *OperatorService) Authorized(chatID int64) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[chatID]
	return ok
}

func (s *OperatorService) Get(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	if !s.Authorized(chatID) {
		return nil, ErrNotAuthorized
	}
	return s.repo.Get(ctx, userID, chatID)
}

func (s *OperatorService) SetState(ctx context.Context, userID, chatID int64, state entity.OperatorState) (*entity.Operator, error) {
	op, err := s.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	op.SetState(state)
	if err := s.repo.Save(ctx, op); err != nil {
		return nil, err
	}

	return op, nil
}

func (s *OperatorService) Subscribe(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.SetState(ctx, userID, chatID, entity.StateScanning)
}

func (s *OperatorService) AwaitDevice(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingDevice)
}

func (s *OperatorService) Cancel(ctx context.Context, userID, chatID int64) (*entity.Operator, error) {
	return s.SetState(ctx, userID, chatID, entity.StateIdle)
}

// Recipients чаты для уведомлений: подписчики, иначе разрешённые чаты из конфигурации.
func (s *OperatorService) Recipients(ctx context.Context) ([]int64, error) {
	subs, err := s.repo.Subscribers(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{})
	var chats []int64
	for _, op := range subs {
		if _, dup := seen[op.ChatID]; dup || !s.Authorized(op.ChatID) {
			continue
		}
		seen[op.ChatID] = struct{}{}
		chats = append(chats, op.ChatID)
	}
	if len(chats) == 0 {
		for id := range s.allowed {
			chats = append(chats, id)
		}
		sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	}
	return chats, nil
}
