package service

import "github.com/cwrk-planet/chat-service/internal/domain"

// Notifier — выход в realtime-слой. Вызывается строго после успешной записи:
// подключённый клиент не должен увидеть событие о данных, которых ещё нет в базе.
// Рассылка best-effort: пустая аудитория — не ошибка.
type Notifier interface {
	NewMessage(userIDs []string, msg *domain.Message)
	NewGroupMessage(groupID string, msg *domain.Message)
	MessageRead(otherID, readerID string)
	ReactionAdded(userIDs []string, messageID string, r domain.Reaction)
	ReactionRemoved(userIDs []string, messageID, userID, emoji string)
	MessageDeleted(userIDs []string, messageID string, deletedFor []string)
	MessageStarred(userIDs []string, messageID string, starred bool, userID string)

	GroupUpdated(userIDs []string, g *domain.Group)
	GroupMemberAdded(userID string, g *domain.Group, addedBy string)
	GroupMemberRemoved(userID, groupID, removedBy string)
	GroupMemberLeft(userIDs []string, groupID, userID string)
	GroupDeleted(userIDs []string, groupID, deletedBy string)

	// Подписки group scope: добавленный участник начинает получать сразу,
	// удалённый — сразу перестаёт.
	GroupSubscribe(userID, groupID string)
	GroupUnsubscribe(userID, groupID string)
	GroupDropped(groupID string)
}

// PresenceView — проверка «есть ли у пользователя живое соединение».
type PresenceView interface {
	IsOnline(userID string) bool
}
