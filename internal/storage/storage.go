// Package storage defines the persistent store consumed by the services.
// Two backends implement it: an embedded BadgerDB store (default) and
// Postgres. Both return history oldest-first.
package storage

import (
	"context"

	"github.com/pacis-link/share-service/internal/domain"
)

// MessageStore holds per-room message history.
type MessageStore interface {
	// AppendMessage durably records msg. The caller assigns id and timestamp.
	AppendMessage(ctx context.Context, msg domain.Message) error
	// ListMessages returns the full history of roomID, oldest first.
	// An unknown room yields an empty slice, not an error.
	ListMessages(ctx context.Context, roomID string) ([]domain.Message, error)
}

// FileStore holds file metadata per room.
type FileStore interface {
	AppendFile(ctx context.Context, rec domain.FileRecord) error
	// ListFiles returns the records of roomID, oldest first.
	ListFiles(ctx context.Context, roomID string) ([]domain.FileRecord, error)
	// GetFile resolves a record by id alone, independent of room. Returns
	// domain.ErrNotFound for unknown ids.
	GetFile(ctx context.Context, id string) (*domain.FileRecord, error)
}

// Store is the combined persistent store behind the service layer.
type Store interface {
	MessageStore
	FileStore

	Ping(ctx context.Context) error
	Close() error
}
