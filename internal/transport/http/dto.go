package http

import (
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type UserItem struct {
	ID         string    `json:"id"`
	Username   string    `json:"username,omitempty"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	ProfilePic string    `json:"profilePic,omitempty"`
	LastSeen   time.Time `json:"lastSeen"`
	CreatedAt  time.Time `json:"createdAt"`
}

func newUserItem(u domain.User) UserItem {
	it := UserItem{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		ProfilePic: u.ProfilePic,
		LastSeen:   u.LastSeen,
		CreatedAt:  u.CreatedAt,
	}
	if u.Username != nil {
		it.Username = *u.Username
	}
	return it
}

type UsersResponse struct {
	Items []UserItem `json:"items"`
}

type SendMessageRequest struct {
	Text          string  `json:"text"`
	Image         string  `json:"image,omitempty"`
	PDF           string  `json:"pdf,omitempty"`
	Audio         string  `json:"audio,omitempty"`
	AudioDuration int     `json:"audioDuration,omitempty"`
	ReplyTo       *string `json:"replyTo,omitempty"`
}

type ReactionItem struct {
	UserID    string    `json:"userId"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

type MessageItem struct {
	ID             string         `json:"id"`
	ConversationID *string        `json:"conversationId,omitempty"`
	GroupID        *string        `json:"groupId,omitempty"`
	SenderID       string         `json:"senderId"`
	ReceiverID     *string        `json:"receiverId,omitempty"`
	Text           string         `json:"text,omitempty"`
	Image          string         `json:"image,omitempty"`
	PDF            string         `json:"pdf,omitempty"`
	Audio          string         `json:"audio,omitempty"`
	AudioDuration  int            `json:"audioDuration,omitempty"`
	Status         string         `json:"status"`
	Reactions      []ReactionItem `json:"reactions"`
	StarredBy      []string       `json:"starredBy,omitempty"`
	ReplyTo        *string        `json:"replyTo,omitempty"`
	IsDeleted      bool           `json:"isDeleted,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// newMessageItem рендерит сообщение глазами viewer: для участника из
// deletedFor остаётся только надгробие без содержимого.
func newMessageItem(m domain.Message, viewerID string) MessageItem {
	it := MessageItem{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		GroupID:        m.GroupID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Status:         string(m.Status),
		Reactions:      make([]ReactionItem, 0, len(m.Reactions)),
		StarredBy:      m.StarredBy,
		ReplyTo:        m.ReplyTo,
		CreatedAt:      m.CreatedAt,
	}
	if m.DeletedForUser(viewerID) {
		it.IsDeleted = true
		it.Reactions = []ReactionItem{}
		return it
	}
	it.Text = m.Text
	it.Image = m.Image
	it.PDF = m.PDF
	it.Audio = m.Audio
	it.AudioDuration = m.AudioDuration
	for _, r := range m.Reactions {
		it.Reactions = append(it.Reactions, ReactionItem(r))
	}
	return it
}

type MessagesResponse struct {
	Items      []MessageItem `json:"items"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

type StarResponse struct {
	MessageID string `json:"messageId"`
	IsStarred bool   `json:"isStarred"`
}

type ConversationItem struct {
	ID            string    `json:"id"`
	ParticipantA  string    `json:"participantA"`
	ParticipantB  string    `json:"participantB"`
	LastMessageID *string   `json:"lastMessageId,omitempty"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ConversationsResponse struct {
	Items []ConversationItem `json:"items"`
}

type CreateGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
	Avatar  string   `json:"avatar,omitempty"`
}

type UpdateGroupRequest struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type AddMemberRequest struct {
	UserID string `json:"userId"`
}

type GroupItem struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	AdminID     string                   `json:"adminId"`
	Members     []string                 `json:"members"`
	Avatar      string                   `json:"avatar,omitempty"`
	LastMessage *domain.GroupLastMessage `json:"lastMessage,omitempty"`
	CreatedAt   time.Time                `json:"createdAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

func newGroupItem(g domain.Group) GroupItem {
	return GroupItem{
		ID:          g.ID,
		Name:        g.Name,
		AdminID:     g.AdminID,
		Members:     g.Members,
		Avatar:      g.Avatar,
		LastMessage: g.LastMessage,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

type GroupsResponse struct {
	Items []GroupItem `json:"items"`
}
