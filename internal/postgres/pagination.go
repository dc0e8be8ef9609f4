package postgres

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor — позиция в выдаче истории: (created_at, id) последней отданной
// строки. Ключи короткие, курсор живёт в query string.
type Cursor struct {
	CreatedAt time.Time `json:"ts"`
	ID        string    `json:"id"`
}

// EncodeCursor — base64(JSON); непрозрачен для клиента.
func EncodeCursor(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCursor: пустая строка — курсора нет, (nil, nil).
// Любой мусор сворачивается в ErrInvalidCursor.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.ID == "" && c.CreatedAt.IsZero() {
		return nil, ErrInvalidCursor
	}

	return &c, nil
}
