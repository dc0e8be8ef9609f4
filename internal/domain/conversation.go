package domain

import "time"

type Conversation struct {
	ID            string    `db:"id"`
	ParticipantA  string    `db:"participant_a"`
	ParticipantB  string    `db:"participant_b"`
	RoomKey       string    `db:"room_key"`
	LastMessageID *string   `db:"last_message_id"`
	LastMessageAt time.Time `db:"last_message_at"`
	CreatedAt     time.Time `db:"created_at"`
}

// RoomKey детерминирован и симметричен: RoomKey(a,b) == RoomKey(b,a).
// Пара сортируется, разделитель фиксированный.
func RoomKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipant возвращает второго участника диалога.
func (c *Conversation) OtherParticipant(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}
