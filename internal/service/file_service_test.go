package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pacis-link/share-service/internal/domain"
)

type fakeFileStore struct {
	records   map[string]domain.FileRecord
	appendErr error
	listed    []domain.FileRecord
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{records: make(map[string]domain.FileRecord)}
}

func (f *fakeFileStore) AppendFile(_ context.Context, rec domain.FileRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeFileStore) ListFiles(_ context.Context, _ string) ([]domain.FileRecord, error) {
	return f.listed, nil
}

func (f *fakeFileStore) GetFile(_ context.Context, id string) (*domain.FileRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

type fakeBlobStore struct {
	blobs    map[string][]byte
	writeErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Write(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.blobs[key] = data
	return nil
}

func (f *fakeBlobStore) Read(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.blobs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlobStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.blobs[key]
	return ok, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	delete(f.blobs, key)
	return nil
}

type fakeSink struct {
	shared []domain.FileRecord
}

func (f *fakeSink) FileShared(rec domain.FileRecord) { f.shared = append(f.shared, rec) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileService_RecordUpload_Persists_Then_Announces(t *testing.T) {
	req := require.New(t)
	files := newFakeFileStore()
	blobs := newFakeBlobStore()
	sink := &fakeSink{}
	svc := NewFileService(files, blobs, discardLogger())
	svc.SetShareSink(sink)

	rec, err := svc.RecordUpload(context.Background(), "lobby", "alice", "report.pdf",
		strings.NewReader("content"), 7, "application/pdf")

	req.NoError(err)
	req.NotEmpty(rec.ID)
	req.Equal("lobby", rec.Room)
	req.Equal("alice", rec.Sender)
	req.Equal("report.pdf", rec.OriginalName)
	req.Equal([]byte("content"), blobs.blobs[rec.BlobKey])
	req.Contains(files.records, rec.ID)
	req.Len(sink.shared, 1)
	req.Equal(rec.ID, sink.shared[0].ID)
}

func TestFileService_RecordUpload_Blob_Failure_Is_Fail_Closed(t *testing.T) {
	req := require.New(t)
	files := newFakeFileStore()
	blobs := newFakeBlobStore()
	blobs.writeErr = errors.New("disk full")
	sink := &fakeSink{}
	svc := NewFileService(files, blobs, discardLogger())
	svc.SetShareSink(sink)

	_, err := svc.RecordUpload(context.Background(), "lobby", "alice", "a.txt",
		strings.NewReader("x"), 1, "text/plain")

	req.Error(err)
	req.False(domain.IsPartialFailure(err))
	req.Empty(files.records)
	req.Empty(sink.shared)
}

func TestFileService_RecordUpload_Record_Failure_Is_Partial(t *testing.T) {
	req := require.New(t)
	files := newFakeFileStore()
	files.appendErr = errors.New("db down")
	blobs := newFakeBlobStore()
	sink := &fakeSink{}
	svc := NewFileService(files, blobs, discardLogger())
	svc.SetShareSink(sink)

	_, err := svc.RecordUpload(context.Background(), "lobby", "alice", "a.txt",
		strings.NewReader("x"), 1, "text/plain")

	req.Error(err)
	req.True(domain.IsPartialFailure(err))

	// blob stays for reconciliation, nothing was announced
	var pf *domain.PartialFailureError
	req.ErrorAs(err, &pf)
	req.Contains(blobs.blobs, pf.BlobKey)
	req.Empty(sink.shared)
}

func TestFileService_RecordUpload_Defaults_Empty_Name(t *testing.T) {
	req := require.New(t)
	svc := NewFileService(newFakeFileStore(), newFakeBlobStore(), discardLogger())

	rec, err := svc.RecordUpload(context.Background(), "lobby", "", "  ",
		strings.NewReader("x"), 1, "text/plain")

	req.NoError(err)
	req.Equal("file", rec.OriginalName)
	req.Equal("Anonymous", rec.Sender)
}

func TestFileService_ListByRoom_Orders_Oldest_First(t *testing.T) {
	req := require.New(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	files := newFakeFileStore()
	files.listed = []domain.FileRecord{
		{ID: "f2", UploadedAt: base.Add(time.Minute)},
		{ID: "f1", UploadedAt: base},
	}
	svc := NewFileService(files, newFakeBlobStore(), discardLogger())

	recs, err := svc.ListByRoom(context.Background(), "lobby")

	req.NoError(err)
	req.Equal("f1", recs[0].ID)
	req.Equal("f2", recs[1].ID)
}

func TestFileService_Open_Returns_Record_And_Bytes(t *testing.T) {
	req := require.New(t)
	files := newFakeFileStore()
	blobs := newFakeBlobStore()
	svc := NewFileService(files, blobs, discardLogger())

	rec, err := svc.RecordUpload(context.Background(), "lobby", "alice", "a.txt",
		strings.NewReader("payload"), 7, "text/plain")
	req.NoError(err)

	got, rc, err := svc.Open(context.Background(), rec.ID)
	req.NoError(err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	req.NoError(err)
	req.Equal("payload", string(data))
	req.Equal(rec.ID, got.ID)
}

func TestFileService_Open_Unknown_Id_Is_NotFound(t *testing.T) {
	req := require.New(t)
	svc := NewFileService(newFakeFileStore(), newFakeBlobStore(), discardLogger())

	_, _, err := svc.Open(context.Background(), "missing")

	req.ErrorIs(err, domain.ErrNotFound)
}
