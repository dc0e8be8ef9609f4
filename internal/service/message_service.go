package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type MessageStore interface {
	Save(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, id string) (*domain.Message, error)
	UpdateAtomic(ctx context.Context, id string, fn func(m *domain.Message) error) (*domain.Message, error)
	MarkDelivered(ctx context.Context, id string) error
	MarkReadBulk(ctx context.Context, readerID, otherID string) (int64, error)
	ListConversation(ctx context.Context, convID, after string, limit int) ([]domain.Message, string, error)
	ListGroup(ctx context.Context, groupID, after string, limit int) ([]domain.Message, string, error)
	ListStarred(ctx context.Context, userID string) ([]domain.Message, error)
	DeleteByGroup(ctx context.Context, groupID string) (int64, error)
}

type UserStore interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	ListExcept(ctx context.Context, userID string) ([]domain.User, error)
	TouchLastSeen(ctx context.Context, userID string) error
}

type GroupStore interface {
	Create(ctx context.Context, g *domain.Group) error
	Get(ctx context.Context, id string) (*domain.Group, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Group, error)
	UpdateMeta(ctx context.Context, id, name, avatar string) error
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	SetLastMessage(ctx context.Context, groupID string, lm *domain.GroupLastMessage) error
	Delete(ctx context.Context, id string) error
}

type SendInput struct {
	Text          string
	Image         string
	PDF           string
	Audio         string
	AudioDuration int
	ReplyTo       *string
}

type MessageService struct {
	messages MessageStore
	users    UserStore
	groups   GroupStore
	convs    *ConversationService
	presence PresenceView
	notifier Notifier
}

func NewMessageService(messages MessageStore, users UserStore, groups GroupStore, convs *ConversationService, presence PresenceView, notifier Notifier) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		groups:   groups,
		convs:    convs,
		presence: presence,
		notifier: notifier,
	}
}

// SendDirect сохраняет сообщение как sent и рассылает newMessage обеим сторонам.
// Если у получателя есть живое соединение, статус оптимистично добирается до
// delivered асинхронно: emit идёт первым, статус — advisory, не гарантия.
func (s *MessageService) SendDirect(ctx context.Context, senderID, receiverID string, in SendInput) (*domain.Message, error) {
	if senderID == receiverID {
		return nil, domain.ErrSelfMessage
	}
	msg := &domain.Message{
		SenderID:      senderID,
		ReceiverID:    &receiverID,
		Text:          in.Text,
		Image:         in.Image,
		PDF:           in.PDF,
		Audio:         in.Audio,
		AudioDuration: in.AudioDuration,
		ReplyTo:       in.ReplyTo,
	}
	if !msg.HasContent() {
		return nil, domain.ErrEmptyMessage
	}
	if _, err := s.users.Get(ctx, receiverID); err != nil {
		return nil, err
	}

	conv, err := s.convs.Resolve(ctx, senderID, receiverID, true)
	if err != nil {
		return nil, err
	}
	msg.ConversationID = &conv.ID

	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.convs.RecordMessage(ctx, conv.ID, msg); err != nil {
		return nil, err
	}

	s.notifier.NewMessage([]string{senderID, receiverID}, msg)

	if s.presence.IsOnline(receiverID) {
		go s.deliverLater(msg.ID)
	}

	return msg, nil
}

func (s *MessageService) deliverLater(messageID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.messages.MarkDelivered(ctx, messageID); err != nil {
		slog.Warn("mark delivered failed", "message", messageID, "err", err)
	}
}

// SendGroup сохраняет групповое сообщение и рассылает его всем участникам.
func (s *MessageService) SendGroup(ctx context.Context, senderID, groupID string, in SendInput) (*domain.Message, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(senderID) {
		return nil, domain.ErrNotGroupMember
	}

	msg := &domain.Message{
		SenderID:      senderID,
		GroupID:       &groupID,
		Text:          in.Text,
		Image:         in.Image,
		PDF:           in.PDF,
		Audio:         in.Audio,
		AudioDuration: in.AudioDuration,
		ReplyTo:       in.ReplyTo,
	}
	if !msg.HasContent() {
		return nil, domain.ErrEmptyMessage
	}

	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.groups.SetLastMessage(ctx, groupID, &domain.GroupLastMessage{
		Text:      msg.Preview(),
		SenderID:  senderID,
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		return nil, err
	}

	s.notifier.NewGroupMessage(groupID, msg)

	return msg, nil
}

// MarkRead атомарно переводит все сообщения от other к reader в read и
// уведомляет other, кто их прочитал. Ноль обновлённых строк — не ошибка,
// события в этом случае нет (идемпотентность повторного вызова).
func (s *MessageService) MarkRead(ctx context.Context, readerID, otherID string) (int64, error) {
	count, err := s.messages.MarkReadBulk(ctx, readerID, otherID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.notifier.MessageRead(otherID, readerID)
	}
	return count, nil
}

// History — переписка пользователя с other по created_at ASC.
// Если диалога ещё нет — пустая история, не ошибка.
func (s *MessageService) History(ctx context.Context, userID, otherID, after string, limit int) ([]domain.Message, string, error) {
	conv, err := s.convs.Resolve(ctx, userID, otherID, false)
	if err != nil {
		return nil, "", err
	}
	if conv == nil {
		return nil, "", nil
	}
	if !conv.HasParticipant(userID) {
		return nil, "", domain.ErrConversationNotFound
	}
	return s.messages.ListConversation(ctx, conv.ID, after, limit)
}

// GroupHistory — история группы, только для участников.
func (s *MessageService) GroupHistory(ctx context.Context, userID, groupID, after string, limit int) ([]domain.Message, string, error) {
	group, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return nil, "", err
	}
	if !group.IsMember(userID) {
		return nil, "", domain.ErrNotGroupMember
	}
	return s.messages.ListGroup(ctx, groupID, after, limit)
}

// Starred — избранные сообщения пользователя.
func (s *MessageService) Starred(ctx context.Context, userID string) ([]domain.Message, error) {
	return s.messages.ListStarred(ctx, userID)
}

// Sidebar — все пользователи, кроме текущего.
func (s *MessageService) Sidebar(ctx context.Context, userID string) ([]domain.User, error) {
	return s.users.ListExcept(ctx, userID)
}
