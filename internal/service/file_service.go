package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pacis-link/share-service/internal/blob"
	"github.com/pacis-link/share-service/internal/domain"
	"github.com/pacis-link/share-service/internal/storage"
)

// ShareSink receives the share event for a freshly recorded upload. The live
// hub implements it; tests use fakes.
type ShareSink interface {
	FileShared(rec domain.FileRecord)
}

// FileService coordinates uploads: blob bytes first, then the metadata
// record, then the share broadcast. The share event is distinct from the raw
// upload response.
type FileService struct {
	files storage.FileStore
	blobs blob.Store
	sink  ShareSink
	log   *slog.Logger
}

func NewFileService(files storage.FileStore, blobs blob.Store, log *slog.Logger) *FileService {
	return &FileService{files: files, blobs: blobs, log: log}
}

// SetShareSink attaches the broadcast sink. Wire it before serving traffic.
func (s *FileService) SetShareSink(sink ShareSink) { s.sink = sink }

// RecordUpload stores the bytes, assigns a fresh id, persists the record and
// emits the share event.
//
// Failure order matters: a blob write error is fail-closed (no record, no
// orphan). A record error after the blob committed cannot be rolled back;
// it surfaces as PartialFailureError and the orphaned key is logged for
// out-of-band reconciliation.
func (s *FileService) RecordUpload(ctx context.Context, roomID, sender, originalName string, r io.Reader, size int64, contentType string) (*domain.FileRecord, error) {
	if strings.TrimSpace(originalName) == "" {
		originalName = "file"
	}
	if strings.TrimSpace(sender) == "" {
		sender = "Anonymous"
	}

	rec := domain.FileRecord{
		ID:           uuid.NewString(),
		Room:         domain.RoomOrDefault(roomID),
		Sender:       sender,
		OriginalName: originalName,
		ContentType:  contentType,
		Size:         size,
		UploadedAt:   time.Now().UTC(),
	}
	rec.BlobKey = rec.ID

	if err := s.blobs.Write(ctx, rec.BlobKey, r, size, contentType); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	if err := s.files.AppendFile(ctx, rec); err != nil {
		pf := &domain.PartialFailureError{BlobKey: rec.BlobKey, Err: err}
		s.log.Error("upload partial failure: orphaned blob needs reconciliation",
			"blob_key", rec.BlobKey, "room", rec.Room, "name", rec.OriginalName, "err", err)
		return nil, pf
	}

	if s.sink != nil {
		s.sink.FileShared(rec)
	}
	return &rec, nil
}

// ListByRoom returns the room's file records oldest-first, mirroring the
// message snapshot ordering contract.
func (s *FileService) ListByRoom(ctx context.Context, roomID string) ([]domain.FileRecord, error) {
	recs, err := s.files.ListFiles(ctx, domain.RoomOrDefault(roomID))
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].UploadedAt.Equal(recs[j].UploadedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].UploadedAt.Before(recs[j].UploadedAt)
	})
	return recs, nil
}

// Open resolves a file id to its record and a reader over the stored bytes.
// Lookup is by id alone: the download path is deliberately not room-scoped
// (a known, documented boundary of the protocol, not an oversight).
func (s *FileService) Open(ctx context.Context, id string) (*domain.FileRecord, io.ReadCloser, error) {
	rec, err := s.files.GetFile(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Read(ctx, rec.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open blob %s: %w", rec.BlobKey, err)
	}
	return rec, rc, nil
}
