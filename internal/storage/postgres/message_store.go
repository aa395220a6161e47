package postgres

import (
	"context"
	"fmt"

	"github.com/pacis-link/share-service/internal/domain"
)

func (s *Store) AppendMessage(ctx context.Context, msg domain.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO room_messages (id, room_id, sender, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.Room, msg.Sender, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: append message: %v", domain.ErrStorage, err)
	}
	return nil
}

// ListMessages returns history oldest-first. The ordering lives in the query
// so callers never see storage order.
func (s *Store) ListMessages(ctx context.Context, roomID string) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, sender, content, created_at
		FROM room_messages
		WHERE room_id = $1
		ORDER BY created_at ASC, id ASC
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	out := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.Room, &m.Sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan message: %v", domain.ErrStorage, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", domain.ErrStorage, err)
	}
	return out, nil
}
