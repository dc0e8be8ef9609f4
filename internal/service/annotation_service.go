package service

import (
	"context"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// AnnotationService — реакции, избранное и soft-delete. Все мутации идут через
// UpdateAtomic (FOR UPDATE), чтобы конкурентные аннотации одного сообщения
// не теряли апдейты.
type AnnotationService struct {
	messages MessageStore
	groups   GroupStore
	notifier Notifier

	now func() time.Time
}

func NewAnnotationService(messages MessageStore, groups GroupStore, notifier Notifier) *AnnotationService {
	return &AnnotationService{
		messages: messages,
		groups:   groups,
		notifier: notifier,
		now:      time.Now,
	}
}

// audience — все стороны сообщения: оба участника диалога либо участники группы.
func (s *AnnotationService) audience(ctx context.Context, m *domain.Message) ([]string, error) {
	if m.IsGroupMessage() {
		group, err := s.groups.Get(ctx, *m.GroupID)
		if err != nil {
			return nil, err
		}
		return group.Members, nil
	}
	if m.ReceiverID == nil {
		return []string{m.SenderID}, nil
	}
	return []string{m.SenderID, *m.ReceiverID}, nil
}

// AddReaction: повтор той же пары (user, emoji) отклоняется, другой emoji
// заменяет прежнюю реакцию пользователя.
func (s *AnnotationService) AddReaction(ctx context.Context, actorID, messageID, emoji string) (*domain.Message, error) {
	var reaction domain.Reaction
	msg, err := s.messages.UpdateAtomic(ctx, messageID, func(m *domain.Message) error {
		r, err := m.AddReaction(actorID, emoji, s.now())
		if err != nil {
			return err
		}
		reaction = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	users, err := s.audience(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.notifier.ReactionAdded(users, msg.ID, reaction)

	return msg, nil
}

func (s *AnnotationService) RemoveReaction(ctx context.Context, actorID, messageID, emoji string) (*domain.Message, error) {
	msg, err := s.messages.UpdateAtomic(ctx, messageID, func(m *domain.Message) error {
		return m.RemoveReaction(actorID, emoji)
	})
	if err != nil {
		return nil, err
	}

	users, err := s.audience(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.notifier.ReactionRemoved(users, msg.ID, actorID, emoji)

	return msg, nil
}

// ToggleStar всегда успешен; возвращает получившееся состояние.
func (s *AnnotationService) ToggleStar(ctx context.Context, actorID, messageID string) (bool, error) {
	var starred bool
	msg, err := s.messages.UpdateAtomic(ctx, messageID, func(m *domain.Message) error {
		starred = m.ToggleStar(actorID)
		return nil
	})
	if err != nil {
		return false, err
	}

	users, err := s.audience(ctx, msg)
	if err != nil {
		return starred, err
	}
	s.notifier.MessageStarred(users, msg.ID, starred, actorID)

	return starred, nil
}

// DeleteForEveryone — только отправитель и только в пределах DeleteWindow;
// причины отказа различимы. Контент остаётся в базе, обе стороны (или все
// участники группы) попадают в deletedFor и видят tombstone.
func (s *AnnotationService) DeleteForEveryone(ctx context.Context, actorID, messageID string) (*domain.Message, error) {
	msg, err := s.messages.UpdateAtomic(ctx, messageID, func(m *domain.Message) error {
		if err := m.DeletableBy(actorID, s.now()); err != nil {
			return err
		}
		if m.IsGroupMessage() {
			group, err := s.groups.Get(ctx, *m.GroupID)
			if err != nil {
				return err
			}
			m.MarkDeletedFor(group.Members...)
			return nil
		}
		m.MarkDeletedFor(m.SenderID)
		if m.ReceiverID != nil {
			m.MarkDeletedFor(*m.ReceiverID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	users, err := s.audience(ctx, msg)
	if err != nil {
		return nil, err
	}
	s.notifier.MessageDeleted(users, msg.ID, msg.DeletedFor)

	return msg, nil
}
