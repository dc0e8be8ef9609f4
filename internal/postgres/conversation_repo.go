package postgres

import (
	"context"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationRepository struct {
	db *pgxpool.Pool
}

func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) GetByRoomKey(ctx context.Context, roomKey string) (*domain.Conversation, error) {
	var c domain.Conversation
	query := `
		SELECT id, participant_a, participant_b, room_key, last_message_id, last_message_at, created_at
		FROM conversations WHERE room_key=$1`
	err := r.db.QueryRow(ctx, query, roomKey).
		Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &c.RoomKey, &c.LastMessageID, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create полагается на unique по room_key: при гонке двух первых сообщений
// проигравший получает 23505 и перечитывает существующую строку (см. сервис).
func (r *ConversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	query := `
		INSERT INTO conversations (participant_a, participant_b, room_key, last_message_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, c.ParticipantA, c.ParticipantB, c.RoomKey, c.LastMessageAt).
		Scan(&c.ID, &c.CreatedAt)
}

// LatestLegacy — последнее сообщение между парой без conversation_id (до миграции).
func (r *ConversationRepository) LatestLegacy(ctx context.Context, a, b string) (*domain.Message, error) {
	var m domain.Message
	query := `
		SELECT id, sender_id, receiver_id, created_at
		FROM messages
		WHERE conversation_id IS NULL
		  AND ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
		ORDER BY created_at DESC
		LIMIT 1`
	err := r.db.QueryRow(ctx, query, a, b).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return &m, nil
}

// BackfillLegacy проставляет conversation_id всем unkeyed-сообщениям пары.
func (r *ConversationRepository) BackfillLegacy(ctx context.Context, convID, a, b string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE messages SET conversation_id=$1
		WHERE conversation_id IS NULL
		  AND ((sender_id=$2 AND receiver_id=$3) OR (sender_id=$3 AND receiver_id=$2))
	`, convID, a, b)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *ConversationRepository) SetLastMessage(ctx context.Context, convID, messageID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations SET last_message_id=$2, last_message_at=$3 WHERE id=$1
	`, convID, messageID, at)
	return err
}

// ListForUser — диалоги пользователя, свежие сверху.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, participant_a, participant_b, room_key, last_message_id, last_message_at, created_at
		FROM conversations
		WHERE participant_a=$1 OR participant_b=$1
		ORDER BY last_message_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.ParticipantA, &c.ParticipantB, &c.RoomKey, &c.LastMessageID, &c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
