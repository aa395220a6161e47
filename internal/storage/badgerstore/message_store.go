package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/pacis-link/share-service/internal/domain"
)

func (s *Store) AppendMessage(ctx context.Context, msg domain.Message) error {
	val, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	key := timeKey("msg", msg.Room, msg.CreatedAt, msg.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return fmt.Errorf("%w: append message: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, roomID string) ([]domain.Message, error) {
	out := []domain.Message{}
	err := s.scanPrefix(roomPrefix("msg", roomID), func(val []byte) error {
		var m domain.Message
		if err := json.Unmarshal(val, &m); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", domain.ErrStorage, err)
	}
	return out, nil
}
