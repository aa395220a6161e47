package client

import "errors"

var (
	// ErrNotJoined is returned when Send is called before Join.
	ErrNotJoined = errors.New("not joined to a room")

	// ErrNotReady is returned when a join is still in flight and the
	// pending queue is full.
	ErrNotReady = errors.New("join in flight, try again")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

// ServerError is a protocol error delivered on the socket. Ref carries
// the client-assigned id of the send it refers to, when the server knew
// one; the matching timeline entry is marked failed before the error
// callback fires.
type ServerError struct {
	Code string
	Msg  string
	Ref  string
}

func (e *ServerError) Error() string {
	return e.Code + ": " + e.Msg
}
