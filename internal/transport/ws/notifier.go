package ws

import (
	"github.com/cwrk-planet/chat-service/internal/domain"
)

// Router превращает логическую аудиторию в живые соединения:
// user scope — через Presence, group scope — через комнаты Hub.
// Реализует service.Notifier.
type Router struct {
	hub      *Hub
	presence *Presence
}

func NewRouter(hub *Hub, presence *Presence) *Router {
	return &Router{hub: hub, presence: presence}
}

func groupRoom(groupID string) string { return "group:" + groupID }

func (r *Router) toUsers(userIDs []string, ev Event) {
	for _, id := range userIDs {
		r.presence.SendToUser(id, ev)
	}
}

func (r *Router) NewMessage(userIDs []string, msg *domain.Message) {
	r.toUsers(userIDs, Event{Type: TypeNewMessage, Payload: NewMessagePayload(msg)})
}

// NewGroupMessage идёт через комнату группы: удалённый участник отписан от
// комнаты и событие его не достигает, даже если он онлайн.
func (r *Router) NewGroupMessage(groupID string, msg *domain.Message) {
	r.hub.Broadcast(groupRoom(groupID), Event{Type: TypeNewMessage, Payload: NewMessagePayload(msg)})
}

func (r *Router) MessageRead(otherID, readerID string) {
	r.presence.SendToUser(otherID, Event{Type: TypeMessageRead, Payload: MessageReadPayload{
		ReaderID: readerID,
		From:     readerID,
		To:       otherID,
	}})
}

func (r *Router) ReactionAdded(userIDs []string, messageID string, reaction domain.Reaction) {
	r.toUsers(userIDs, Event{Type: TypeReactionAdded, Payload: ReactionAddedPayload{
		MessageID: messageID,
		Reaction:  ReactionPayload(reaction),
	}})
}

func (r *Router) ReactionRemoved(userIDs []string, messageID, userID, emoji string) {
	r.toUsers(userIDs, Event{Type: TypeReactionRemoved, Payload: ReactionRemovedPayload{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
	}})
}

func (r *Router) MessageDeleted(userIDs []string, messageID string, deletedFor []string) {
	r.toUsers(userIDs, Event{Type: TypeMessageDeleted, Payload: MessageDeletedPayload{
		MessageID:  messageID,
		DeletedFor: deletedFor,
	}})
}

func (r *Router) MessageStarred(userIDs []string, messageID string, starred bool, userID string) {
	r.toUsers(userIDs, Event{Type: TypeMessageStarred, Payload: MessageStarredPayload{
		MessageID: messageID,
		IsStarred: starred,
		UserID:    userID,
	}})
}

func (r *Router) GroupUpdated(userIDs []string, g *domain.Group) {
	r.toUsers(userIDs, Event{Type: TypeGroupUpdated, Payload: NewGroupPayload(g)})
}

func (r *Router) GroupMemberAdded(userID string, g *domain.Group, addedBy string) {
	r.presence.SendToUser(userID, Event{Type: TypeGroupMemberAdded, Payload: GroupMemberAddedPayload{
		Group:   NewGroupPayload(g),
		AddedBy: addedBy,
	}})
}

func (r *Router) GroupMemberRemoved(userID, groupID, removedBy string) {
	r.presence.SendToUser(userID, Event{Type: TypeGroupMemberRemoved, Payload: GroupMemberRemovedPayload{
		GroupID:   groupID,
		RemovedBy: removedBy,
	}})
}

func (r *Router) GroupMemberLeft(userIDs []string, groupID, userID string) {
	r.toUsers(userIDs, Event{Type: TypeGroupMemberLeft, Payload: GroupMemberLeftPayload{
		GroupID: groupID,
		UserID:  userID,
	}})
}

func (r *Router) GroupDeleted(userIDs []string, groupID, deletedBy string) {
	r.toUsers(userIDs, Event{Type: TypeGroupDeleted, Payload: GroupDeletedPayload{
		GroupID:   groupID,
		DeletedBy: deletedBy,
	}})
}

// GroupSubscribe подключает все живые соединения пользователя к комнате группы.
func (r *Router) GroupSubscribe(userID, groupID string) {
	for _, c := range r.presence.ConnsOf(userID) {
		r.hub.Join(groupRoom(groupID), c)
	}
}

func (r *Router) GroupUnsubscribe(userID, groupID string) {
	for _, c := range r.presence.ConnsOf(userID) {
		r.hub.Leave(groupRoom(groupID), c)
	}
}

func (r *Router) GroupDropped(groupID string) {
	r.hub.DropRoom(groupRoom(groupID))
}
