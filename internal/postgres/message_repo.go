package postgres

import (
	"context"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, conversation_id, group_id, sender_id, receiver_id,
	text, image, pdf, audio, audio_duration, status, reactions, reply_to,
	deleted_for, starred_by, created_at`

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.GroupID, &m.SenderID, &m.ReceiverID,
		&m.Text, &m.Image, &m.PDF, &m.Audio, &m.AudioDuration, &m.Status, &m.Reactions, &m.ReplyTo,
		&m.DeletedFor, &m.StarredBy, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) Save(ctx context.Context, m *domain.Message) error {
	query := `
		INSERT INTO messages (conversation_id, group_id, sender_id, receiver_id,
			text, image, pdf, audio, audio_duration, reply_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, status, reactions, deleted_for, starred_by, created_at`
	return r.db.QueryRow(ctx, query,
		m.ConversationID, m.GroupID, m.SenderID, m.ReceiverID,
		m.Text, m.Image, m.PDF, m.Audio, m.AudioDuration, m.ReplyTo).
		Scan(&m.ID, &m.Status, &m.Reactions, &m.DeletedFor, &m.StarredBy, &m.CreatedAt)
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE id=$1`, messageColumns)
	m, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}
	return m, nil
}

// UpdateAtomic — read-modify-write под FOR UPDATE, чтобы конкурентные
// аннотации одного сообщения не теряли апдейты друг друга.
func (r *MessageRepository) UpdateAtomic(ctx context.Context, id string, fn func(m *domain.Message) error) (*domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`SELECT %s FROM messages WHERE id=$1 FOR UPDATE`, messageColumns)
	m, err := scanMessage(tx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}

	if err := fn(m); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE messages SET reactions=$2, deleted_for=$3, starred_by=$4, status=$5
		WHERE id=$1
	`, m.ID, m.Reactions, m.DeletedFor, m.StarredBy, m.Status); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// MarkDelivered переводит sent -> delivered; read не трогается (статус только вперёд).
func (r *MessageRepository) MarkDelivered(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages SET status='delivered' WHERE id=$1 AND status='sent'
	`, id)
	return err
}

// MarkReadBulk одним атомарным апдейтом переводит все непрочитанные сообщения
// от other к reader в read. Ноль строк — не ошибка.
func (r *MessageRepository) MarkReadBulk(ctx context.Context, readerID, otherID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE messages SET status='read'
		WHERE sender_id=$2 AND receiver_id=$1 AND status <> 'read'
	`, readerID, otherID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// ListConversation — история диалога по created_at ASC с курсорной пагинацией.
func (r *MessageRepository) ListConversation(ctx context.Context, convID, after string, limit int) ([]domain.Message, string, error) {
	return r.list(ctx, `conversation_id=$1`, convID, after, limit)
}

// ListGroup — история группы по created_at ASC с курсорной пагинацией.
func (r *MessageRepository) ListGroup(ctx context.Context, groupID, after string, limit int) ([]domain.Message, string, error) {
	return r.list(ctx, `group_id=$1`, groupID, after, limit)
}

func (r *MessageRepository) list(ctx context.Context, where, key, after string, limit int) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", fmt.Errorf("decode cursor: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM messages
		WHERE %s
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at > $2
		    OR (created_at = $2 AND id > $3)
		  )
		ORDER BY created_at ASC, id ASC
		LIMIT $4
	`, messageColumns, where)

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, query, key, createdAt, id, limit)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		if c, e := EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID}); e == nil {
			next = c
		}
	}
	return out, next, nil
}

// ListStarred — сообщения, отмеченные пользователем, свежие сверху.
func (r *MessageRepository) ListStarred(ctx context.Context, userID string) ([]domain.Message, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM messages
		WHERE $1 = ANY(starred_by)
		ORDER BY created_at DESC
	`, messageColumns)
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// DeleteByGroup — каскад при удалении группы.
func (r *MessageRepository) DeleteByGroup(ctx context.Context, groupID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM messages WHERE group_id=$1`, groupID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
