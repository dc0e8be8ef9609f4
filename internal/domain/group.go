package domain

import "time"

type GroupLastMessage struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Group struct {
	ID          string            `db:"id"`
	Name        string            `db:"name"`
	AdminID     string            `db:"admin_id"`
	Members     []string          `db:"members"` // админ всегда входит в members
	Avatar      string            `db:"avatar"`
	LastMessage *GroupLastMessage `db:"last_message"`
	CreatedAt   time.Time         `db:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at"`
}

func (g *Group) IsAdmin(userID string) bool {
	return g.AdminID == userID
}

func (g *Group) IsMember(userID string) bool {
	return contains(g.Members, userID)
}

// MembersExcept — все участники, кроме указанного; для рассылок «остальным».
func (g *Group) MembersExcept(userID string) []string {
	out := make([]string, 0, len(g.Members))
	for _, id := range g.Members {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}
