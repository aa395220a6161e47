package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pacis-link/share-service/internal/domain"
	"github.com/pacis-link/share-service/internal/storage"
)

const defaultMaxMessageChars = 4000

type ChatService struct {
	store    storage.MessageStore
	maxChars int
}

func NewChatService(store storage.MessageStore, maxChars int) *ChatService {
	if maxChars <= 0 {
		maxChars = defaultMaxMessageChars
	}
	return &ChatService{store: store, maxChars: maxChars}
}

// Save validates and durably appends one message. The id and timestamp are
// server-assigned here; callers broadcast only after Save returns nil.
func (s *ChatService) Save(ctx context.Context, roomID, sender, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrMessageEmpty
	}
	// counted in runes, matching the HTTP layer's max=4000 validation
	if utf8.RuneCountInString(content) > s.maxChars {
		return nil, domain.ErrMessageTooLong
	}
	if strings.TrimSpace(sender) == "" {
		sender = "Anonymous"
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		Room:      domain.RoomOrDefault(roomID),
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return &msg, nil
}

// History returns the room snapshot oldest-first, regardless of the
// backend's storage order.
func (s *ChatService) History(ctx context.Context, roomID string) ([]domain.Message, error) {
	msgs, err := s.store.ListMessages(ctx, domain.RoomOrDefault(roomID))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}
