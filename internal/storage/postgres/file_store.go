package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pacis-link/share-service/internal/domain"
)

func (s *Store) AppendFile(ctx context.Context, rec domain.FileRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO room_files (id, room_id, sender, original_name, blob_key, content_type, size, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, rec.Room, rec.Sender, rec.OriginalName, rec.BlobKey, rec.ContentType, rec.Size, rec.UploadedAt)
	if err != nil {
		return fmt.Errorf("%w: append file record: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *Store) ListFiles(ctx context.Context, roomID string) ([]domain.FileRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, sender, original_name, blob_key, content_type, size, uploaded_at
		FROM room_files
		WHERE room_id = $1
		ORDER BY uploaded_at ASC, id ASC
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: list files: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	out := []domain.FileRecord{}
	for rows.Next() {
		var rec domain.FileRecord
		if err := rows.Scan(&rec.ID, &rec.Room, &rec.Sender, &rec.OriginalName, &rec.BlobKey, &rec.ContentType, &rec.Size, &rec.UploadedAt); err != nil {
			return nil, fmt.Errorf("%w: scan file record: %v", domain.ErrStorage, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list files: %v", domain.ErrStorage, err)
	}
	return out, nil
}

// GetFile looks a record up by id alone; downloads are not room-scoped.
func (s *Store) GetFile(ctx context.Context, id string) (*domain.FileRecord, error) {
	var rec domain.FileRecord
	err := s.pool.QueryRow(ctx, `
		SELECT id, room_id, sender, original_name, blob_key, content_type, size, uploaded_at
		FROM room_files
		WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Room, &rec.Sender, &rec.OriginalName, &rec.BlobKey, &rec.ContentType, &rec.Size, &rec.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get file record: %v", domain.ErrStorage, err)
	}
	return &rec, nil
}
