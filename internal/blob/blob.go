// Package blob holds uploaded file bytes behind an opaque key. Backends:
// local filesystem (default) and S3/MinIO.
package blob

import (
	"context"
	"io"
)

// Store is the blob store collaborator. Keys are assigned by the caller and
// never interpreted beyond path safety.
type Store interface {
	// Write stores content under key. size is the expected length (-1 if
	// unknown). A write that returns an error leaves no visible blob.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read retrieves the content for key. The caller closes the reader.
	// Returns domain.ErrNotFound for unknown keys.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the blob under key. Unknown keys are not an error.
	Delete(ctx context.Context, key string) error
}
