package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GroupRepository struct {
	db *pgxpool.Pool
}

func NewGroupRepository(db *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(ctx context.Context, g *domain.Group) error {
	query := `
		INSERT INTO groups (name, admin_id, members, avatar)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, g.Name, g.AdminID, g.Members, g.Avatar).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
}

func (r *GroupRepository) Get(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	query := `
		SELECT id, name, admin_id, members, avatar, last_message, created_at, updated_at
		FROM groups WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&g.ID, &g.Name, &g.AdminID, &g.Members, &g.Avatar, &g.LastMessage, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

// ListForUser — группы, в которых состоит пользователь, свежие сверху.
func (r *GroupRepository) ListForUser(ctx context.Context, userID string) ([]domain.Group, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, admin_id, members, avatar, last_message, created_at, updated_at
		FROM groups
		WHERE $1 = ANY(members)
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Group
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.AdminID, &g.Members, &g.Avatar, &g.LastMessage, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GroupRepository) UpdateMeta(ctx context.Context, id, name, avatar string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE groups
		SET name = COALESCE(NULLIF($2, ''), name),
		    avatar = COALESCE(NULLIF($3, ''), avatar),
		    updated_at = now()
		WHERE id=$1
	`, id, name, avatar)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

// AddMember идемпотентен на уровне массива: повторное добавление не дублирует id.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE groups
		SET members = array_append(members, $2), updated_at = now()
		WHERE id=$1 AND NOT ($2 = ANY(members))
	`, groupID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrAlreadyMember
	}
	return nil
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE groups
		SET members = array_remove(members, $2), updated_at = now()
		WHERE id=$1 AND $2 = ANY(members)
	`, groupID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotGroupMember
	}
	return nil
}

func (r *GroupRepository) SetLastMessage(ctx context.Context, groupID string, lm *domain.GroupLastMessage) error {
	_, err := r.db.Exec(ctx, `
		UPDATE groups SET last_message=$2, updated_at=now() WHERE id=$1
	`, groupID, lm)
	return err
}

func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM groups WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}
