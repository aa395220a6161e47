package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/pacis-link/share-service/internal/domain"
)

// fileValue is the stored form of a file record. It is distinct from the
// domain type because BlobKey never crosses the API boundary but must
// survive persistence.
type fileValue struct {
	ID           string    `json:"id"`
	Room         string    `json:"room"`
	Sender       string    `json:"sender"`
	OriginalName string    `json:"originalName"`
	BlobKey      string    `json:"blobKey"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func toFileValue(rec domain.FileRecord) fileValue {
	return fileValue{
		ID:           rec.ID,
		Room:         rec.Room,
		Sender:       rec.Sender,
		OriginalName: rec.OriginalName,
		BlobKey:      rec.BlobKey,
		ContentType:  rec.ContentType,
		Size:         rec.Size,
		UploadedAt:   rec.UploadedAt,
	}
}

func (v fileValue) record() domain.FileRecord {
	return domain.FileRecord{
		ID:           v.ID,
		Room:         v.Room,
		Sender:       v.Sender,
		OriginalName: v.OriginalName,
		BlobKey:      v.BlobKey,
		ContentType:  v.ContentType,
		Size:         v.Size,
		UploadedAt:   v.UploadedAt,
	}
}

// AppendFile writes the record twice in one transaction: once under the
// room-scoped time key for listing, once under a flat id key so retrieval
// works by id alone (downloads are deliberately not room-scoped).
func (s *Store) AppendFile(ctx context.Context, rec domain.FileRecord) error {
	val, err := json.Marshal(toFileValue(rec))
	if err != nil {
		return fmt.Errorf("encode file record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(timeKey("file", rec.Room, rec.UploadedAt, rec.ID), val); err != nil {
			return err
		}
		return txn.Set(idKey(rec.ID), val)
	})
	if err != nil {
		return fmt.Errorf("%w: append file record: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *Store) ListFiles(ctx context.Context, roomID string) ([]domain.FileRecord, error) {
	out := []domain.FileRecord{}
	err := s.scanPrefix(roomPrefix("file", roomID), func(val []byte) error {
		var v fileValue
		if err := json.Unmarshal(val, &v); err != nil {
			return fmt.Errorf("decode file record: %w", err)
		}
		out = append(out, v.record())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list files: %v", domain.ErrStorage, err)
	}
	return out, nil
}

func (s *Store) GetFile(ctx context.Context, id string) (*domain.FileRecord, error) {
	var v fileValue
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(data []byte) error {
			return json.Unmarshal(data, &v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get file record: %v", domain.ErrStorage, err)
	}
	rec := v.record()
	return &rec, nil
}

func idKey(id string) []byte {
	return []byte("fileid:" + id)
}
