package client

import "encoding/json"

// Socket event types, mirrored from the server.
const (
	typeJoinRoom   = "join-room"
	typeChat       = "chat-message"
	typeFileShared = "file-shared"
	typePeerJoined = "peer-joined"
	typePeerLeft   = "peer-left"
	typeError      = "error"
)

// envelope is the frame exchanged on the socket. Payload stays raw on the
// inbound path so the dispatcher can decode per type.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type joinPayload struct {
	Room string `json:"room"`
	Name string `json:"name,omitempty"`
}

type chatPayload struct {
	ID      string `json:"id,omitempty"`
	Room    string `json:"room"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
	TSUnix  int64  `json:"ts_unix,omitempty"`
}

type filePayload struct {
	Room     string `json:"room"`
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
	Sender   string `json:"sender,omitempty"`
	TSUnix   int64  `json:"ts_unix,omitempty"`
}

type peerPayload struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

type errorPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Ref  string `json:"ref,omitempty"`
}

// MessageEvent is a chat message observed on the live channel.
type MessageEvent struct {
	ID     string
	Room   string
	Sender string
	Text   string
	TS     int64
}

// FileEvent announces a file shared into the room.
type FileEvent struct {
	Room     string
	FileID   string
	Filename string
	Sender   string
	TS       int64
}

// PeerEvent reports a membership change.
type PeerEvent struct {
	Room string
	Name string
}

// StateEvent reports a session state transition.
type StateEvent struct {
	Old SessionState
	New SessionState
	Err error // set when the transition was caused by a failure
}
