package service

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/postgres"
)

type ConversationStore interface {
	GetByRoomKey(ctx context.Context, roomKey string) (*domain.Conversation, error)
	Create(ctx context.Context, c *domain.Conversation) error
	LatestLegacy(ctx context.Context, a, b string) (*domain.Message, error)
	BackfillLegacy(ctx context.Context, convID, a, b string) (int64, error)
	SetLastMessage(ctx context.Context, convID, messageID string, at time.Time) error
	ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error)
}

type ConversationService struct {
	store ConversationStore
}

func NewConversationService(store ConversationStore) *ConversationService {
	return &ConversationService{store: store}
}

// Resolve находит диалог пары по каноничному room key или создаёт его.
// Legacy-сообщения без conversation_id мигрируются при первом обращении
// независимо от пути. Если диалога и legacy-строк нет, read-путь получает
// (nil, nil) — «диалога ещё нет», это не ошибка.
//
// Гонка двух первых сообщений гасится unique по room_key: проигравший
// ловит 23505 и перечитывает уже существующую строку.
func (s *ConversationService) Resolve(ctx context.Context, a, b string, createIfMissing bool) (*domain.Conversation, error) {
	key := domain.RoomKey(a, b)
	conv, err := s.store.GetByRoomKey(ctx, key)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, domain.ErrConversationNotFound) {
		return nil, err
	}

	var legacy *domain.Message
	legacy, err = s.store.LatestLegacy(ctx, a, b)
	if err != nil {
		if !errors.Is(err, domain.ErrMessageNotFound) {
			return nil, err
		}
		legacy = nil
	}
	if legacy == nil && !createIfMissing {
		return nil, nil
	}

	pa, pb := a, b
	if pa > pb {
		pa, pb = pb, pa
	}
	conv = &domain.Conversation{
		ParticipantA:  pa,
		ParticipantB:  pb,
		RoomKey:       key,
		LastMessageAt: time.Now(),
	}
	if legacy != nil {
		conv.LastMessageAt = legacy.CreatedAt
	}

	if err := s.store.Create(ctx, conv); err != nil {
		if postgres.IsUniqueViolation(err) {
			return s.store.GetByRoomKey(ctx, key)
		}
		return nil, err
	}

	if legacy != nil {
		if _, err := s.store.BackfillLegacy(ctx, conv.ID, a, b); err != nil {
			return nil, err
		}
		if err := s.store.SetLastMessage(ctx, conv.ID, legacy.ID, legacy.CreatedAt); err != nil {
			return nil, err
		}
		conv.LastMessageID = &legacy.ID
	}

	return conv, nil
}

// RecordMessage обновляет указатель последнего сообщения диалога.
func (s *ConversationService) RecordMessage(ctx context.Context, convID string, m *domain.Message) error {
	return s.store.SetLastMessage(ctx, convID, m.ID, m.CreatedAt)
}

// ListForUser — диалоги пользователя для списка чатов, свежие сверху.
func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.store.ListForUser(ctx, userID)
}
