package domain

import "time"

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

// DeleteWindow — окно, в течение которого отправитель может удалить сообщение.
const DeleteWindow = 24 * time.Hour

type Reaction struct {
	UserID    string    `json:"userId"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
}

type Message struct {
	ID             string        `db:"id"`
	ConversationID *string       `db:"conversation_id"` // nil только у legacy-строк до миграции
	GroupID        *string       `db:"group_id"`
	SenderID       string        `db:"sender_id"`
	ReceiverID     *string       `db:"receiver_id"` // nil у групповых сообщений
	Text           string        `db:"text"`
	Image          string        `db:"image"`
	PDF            string        `db:"pdf"`
	Audio          string        `db:"audio"`
	AudioDuration  int           `db:"audio_duration"`
	Status         MessageStatus `db:"status"`
	Reactions      []Reaction    `db:"reactions"`
	ReplyTo        *string       `db:"reply_to"`
	DeletedFor     []string      `db:"deleted_for"`
	StarredBy      []string      `db:"starred_by"`
	CreatedAt      time.Time     `db:"created_at"`
}

func (m *Message) HasContent() bool {
	return m.Text != "" || m.Image != "" || m.PDF != "" || m.Audio != ""
}

func (m *Message) IsGroupMessage() bool {
	return m.GroupID != nil
}

func (m *Message) DeletedForUser(userID string) bool {
	return contains(m.DeletedFor, userID)
}

func (m *Message) StarredByUser(userID string) bool {
	return contains(m.StarredBy, userID)
}

// ReactionBy возвращает реакцию пользователя, если она есть.
func (m *Message) ReactionBy(userID string) (Reaction, bool) {
	for _, r := range m.Reactions {
		if r.UserID == userID {
			return r, true
		}
	}
	return Reaction{}, false
}

// AddReaction соблюдает инвариант «одна реакция на пользователя»:
// повтор той же пары (user, emoji) — ошибка, другой emoji заменяет старую запись.
func (m *Message) AddReaction(userID, emoji string, now time.Time) (Reaction, error) {
	if emoji == "" {
		return Reaction{}, ErrMissingEmoji
	}
	if prev, ok := m.ReactionBy(userID); ok {
		if prev.Emoji == emoji {
			return Reaction{}, ErrDuplicateReaction
		}
		m.removeReaction(userID)
	}
	r := Reaction{UserID: userID, Emoji: emoji, CreatedAt: now}
	m.Reactions = append(m.Reactions, r)
	return r, nil
}

func (m *Message) RemoveReaction(userID, emoji string) error {
	prev, ok := m.ReactionBy(userID)
	if !ok || prev.Emoji != emoji {
		return ErrReactionNotFound
	}
	m.removeReaction(userID)
	return nil
}

func (m *Message) removeReaction(userID string) {
	out := make([]Reaction, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		if r.UserID != userID {
			out = append(out, r)
		}
	}
	m.Reactions = out
}

// ToggleStar — чистый flip по множеству; возвращает новое состояние.
func (m *Message) ToggleStar(userID string) bool {
	if m.StarredByUser(userID) {
		out := make([]string, 0, len(m.StarredBy))
		for _, id := range m.StarredBy {
			if id != userID {
				out = append(out, id)
			}
		}
		m.StarredBy = out
		return false
	}
	m.StarredBy = append(m.StarredBy, userID)
	return true
}

// DeletableBy различает причины отказа: не отправитель vs. истёкшее окно.
func (m *Message) DeletableBy(userID string, now time.Time) error {
	if m.SenderID != userID {
		return ErrNotSender
	}
	if now.Sub(m.CreatedAt) > DeleteWindow {
		return ErrDeleteWindowExpired
	}
	return nil
}

func (m *Message) MarkDeletedFor(userIDs ...string) {
	for _, id := range userIDs {
		if !m.DeletedForUser(id) {
			m.DeletedFor = append(m.DeletedFor, id)
		}
	}
}

// Preview — короткая сводка для денормализованного last-message.
func (m *Message) Preview() string {
	switch {
	case m.Text != "":
		return m.Text
	case m.Image != "":
		return "📷 Photo"
	case m.PDF != "":
		return "📄 Document"
	case m.Audio != "":
		return "🎤 Voice Message"
	default:
		return "New message"
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
