package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	query := `SELECT id, username, email, full_name, profile_pic, last_seen, created_at FROM users WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.ProfilePic, &u.LastSeen, &u.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListExcept — все пользователи, кроме указанного; для сайдбара.
func (r *UserRepository) ListExcept(ctx context.Context, userID string) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, username, email, full_name, profile_pic, last_seen, created_at
		FROM users
		WHERE id <> $1
		ORDER BY full_name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.ProfilePic, &u.LastSeen, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) TouchLastSeen(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_seen=now() WHERE id=$1`, userID)
	return err
}
