package ws

import (
	"encoding/json"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// Типы событий realtime-канала.
const (
	TypeOnlineUsers = "getOnlineUsers" // список онлайн-пользователей, всем

	TypeNewMessage = "newMessage" // полное сообщение

	TypeTyping     = "typing" // эфемерные, только подключённым к диалогу
	TypeStopTyping = "stopTyping"

	TypeMarkAsRead  = "markAsRead" // client -> server
	TypeMessageRead = "messageRead"

	TypeAddReaction     = "addReaction" // client -> server
	TypeReactionAdded   = "reactionAdded"
	TypeRemoveReaction  = "removeReaction" // client -> server
	TypeReactionRemoved = "reactionRemoved"

	TypeMessageDeleted = "messageDeleted"
	TypeMessageStarred = "messageStarred"

	TypeJoinConversation  = "joinConversation" // client -> server
	TypeLeaveConversation = "leaveConversation"

	TypeGroupUpdated       = "groupUpdated"
	TypeGroupMemberAdded   = "groupMemberAdded"
	TypeGroupMemberRemoved = "groupMemberRemoved"
	TypeGroupMemberLeft    = "groupMemberLeft"
	TypeGroupDeleted       = "groupDeleted"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

// PeerPayload — эфемерные сигналы typing/stopTyping.
type PeerPayload struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
}

type MessageReadPayload struct {
	ReaderID string `json:"readerId"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// ReactionRequest — клиентские addReaction/removeReaction.
type ReactionRequest struct {
	To        string `json:"to"`
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type ReactionAddedPayload struct {
	MessageID string          `json:"messageId"`
	Reaction  ReactionPayload `json:"reaction"`
}

type ReactionRemovedPayload struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	Emoji     string `json:"emoji"`
}

type ReactionPayload struct {
	UserID    string    `json:"userId"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

type MessageDeletedPayload struct {
	MessageID  string   `json:"messageId"`
	DeletedFor []string `json:"deletedFor"`
}

type MessageStarredPayload struct {
	MessageID string `json:"messageId"`
	IsStarred bool   `json:"isStarred"`
	UserID    string `json:"userId"`
}

// MessagePayload — полная запись сообщения для newMessage.
type MessagePayload struct {
	ID             string            `json:"id"`
	ConversationID *string           `json:"conversationId,omitempty"`
	GroupID        *string           `json:"groupId,omitempty"`
	SenderID       string            `json:"senderId"`
	ReceiverID     *string           `json:"receiverId,omitempty"`
	Text           string            `json:"text,omitempty"`
	Image          string            `json:"image,omitempty"`
	PDF            string            `json:"pdf,omitempty"`
	Audio          string            `json:"audio,omitempty"`
	AudioDuration  int               `json:"audioDuration,omitempty"`
	Status         string            `json:"status"`
	Reactions      []ReactionPayload `json:"reactions"`
	ReplyTo        *string           `json:"replyTo,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func NewMessagePayload(m *domain.Message) MessagePayload {
	reactions := make([]ReactionPayload, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		reactions = append(reactions, ReactionPayload(r))
	}
	return MessagePayload{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		GroupID:        m.GroupID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Text:           m.Text,
		Image:          m.Image,
		PDF:            m.PDF,
		Audio:          m.Audio,
		AudioDuration:  m.AudioDuration,
		Status:         string(m.Status),
		Reactions:      reactions,
		ReplyTo:        m.ReplyTo,
		CreatedAt:      m.CreatedAt,
	}
}

type GroupPayload struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	AdminID     string                   `json:"adminId"`
	Members     []string                 `json:"members"`
	Avatar      string                   `json:"avatar,omitempty"`
	LastMessage *domain.GroupLastMessage `json:"lastMessage,omitempty"`
}

func NewGroupPayload(g *domain.Group) GroupPayload {
	return GroupPayload{
		ID:          g.ID,
		Name:        g.Name,
		AdminID:     g.AdminID,
		Members:     g.Members,
		Avatar:      g.Avatar,
		LastMessage: g.LastMessage,
	}
}

type GroupMemberAddedPayload struct {
	Group   GroupPayload `json:"group"`
	AddedBy string       `json:"addedBy"`
}

type GroupMemberRemovedPayload struct {
	GroupID   string `json:"groupId"`
	RemovedBy string `json:"removedBy"`
}

type GroupMemberLeftPayload struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type GroupDeletedPayload struct {
	GroupID   string `json:"groupId"`
	DeletedBy string `json:"deletedBy"`
}

// decode перегоняет payload из envelope в конкретный тип.
func decode(payload any, dst any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
