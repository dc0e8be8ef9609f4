package domain

import "time"

type User struct {
	ID         string    `db:"id"`
	Username   *string   `db:"username"`
	Email      string    `db:"email"`
	FullName   string    `db:"full_name"`
	ProfilePic string    `db:"profile_pic"`
	LastSeen   time.Time `db:"last_seen"`
	CreatedAt  time.Time `db:"created_at"`
}
