package ws

// Event types on the live channel.
const (
	TypeJoinRoom   = "join-room"    // participant -> hub
	TypeChat       = "chat-message" // room-scoped fan-out
	TypeFileShared = "file-shared"  // room-scoped fan-out
	TypePeerJoined = "peer-joined"  // membership notifications
	TypePeerLeft   = "peer-left"
	TypeError      = "error" // delivered to the originator only
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinPayload struct {
	Room string `json:"room"`
	Name string `json:"name,omitempty"`
}

type ChatPayload struct {
	ID      string `json:"id,omitempty"`
	Room    string `json:"room"`
	Sender  string `json:"sender"`
	Message string `json:"message"`
	TSUnix  int64  `json:"ts_unix,omitempty"`
}

type FilePayload struct {
	Room     string `json:"room"`
	FileID   string `json:"fileId"`
	Filename string `json:"filename"`
	Sender   string `json:"sender,omitempty"`
	TSUnix   int64  `json:"ts_unix,omitempty"`
}

type PeerPayload struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

// ErrorPayload surfaces a failed send to the originating participant so the
// client can retry; it is never broadcast. Ref echoes the client-assigned
// message id from the failing frame, when it carried one, so the client can
// tell which optimistic entry the error belongs to.
type ErrorPayload struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Ref  string `json:"ref,omitempty"`
}

const (
	ErrCodeNotJoined = "not_joined"
	ErrCodeBadEvent  = "invalid_message"
	ErrCodeStorage   = "storage_error"
)
