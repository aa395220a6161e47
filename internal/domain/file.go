package domain

import "time"

// FileRecord describes one uploaded file. The record is immutable once
// created; BlobKey is an opaque pointer into the blob store.
type FileRecord struct {
	ID           string    `json:"id" db:"id"`
	Room         string    `json:"room" db:"room_id"`
	Sender       string    `json:"sender" db:"sender"`
	OriginalName string    `json:"originalName" db:"original_name"`
	BlobKey      string    `json:"-" db:"blob_key"`
	ContentType  string    `json:"contentType" db:"content_type"`
	Size         int64     `json:"size" db:"size"`
	UploadedAt   time.Time `json:"uploadedAt" db:"uploaded_at"`
}
