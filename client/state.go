package client

// SessionState tracks where a Session sits in its join lifecycle.
type SessionState int

const (
	// StateUnjoined means the session is connected but not in any room.
	StateUnjoined SessionState = iota

	// StateJoining means a join frame is in flight.
	StateJoining

	// StateJoined means the session is a member of its room.
	StateJoined

	// StateDisconnected means the socket dropped; a reconnect may be in
	// progress if the config enables it.
	StateDisconnected

	// StateClosed means the session was closed by the caller.
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnjoined:
		return "unjoined"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateDisconnected:
		return "disconnected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
