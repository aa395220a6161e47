package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotJoined: send/upload attempted before membership was established.
	ErrNotJoined = errors.New("not joined to a room")
	// ErrNotReady: action attempted while a join is still in flight.
	ErrNotReady = errors.New("join in progress")
	// ErrNotFound: unknown file or message id.
	ErrNotFound = errors.New("not found")
	// ErrStorage: the persistent store or blob store is unavailable.
	ErrStorage = errors.New("storage unavailable")
	// ErrMessageEmpty / ErrMessageTooLong: send validation failures.
	ErrMessageEmpty   = errors.New("empty message")
	ErrMessageTooLong = errors.New("message too long")
)

// PartialFailureError reports the blob-committed/metadata-absent state after
// an upload: the blob store accepted the bytes but the record append failed.
// Blobs are never rolled back, so the orphan must be surfaced and logged for
// out-of-band reconciliation, never swallowed.
type PartialFailureError struct {
	BlobKey string
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure: blob %s committed, metadata absent: %v", e.BlobKey, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// IsPartialFailure reports whether err carries an orphaned blob.
func IsPartialFailure(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}
