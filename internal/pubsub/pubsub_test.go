package pubsub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEvent_Wraps_Payload(t *testing.T) {
	req := require.New(t)

	ev, err := NewEvent("chat-message", "lobby", map[string]string{"message": "hi"})

	req.NoError(err)
	req.Equal("chat-message", ev.Type)
	req.Equal("lobby", ev.Room)
	req.False(ev.At.IsZero())
	req.Empty(ev.Origin)

	var payload map[string]string
	req.NoError(json.Unmarshal(ev.Payload, &payload))
	req.Equal("hi", payload["message"])
}

func TestNewEvent_Rejects_Unencodable_Payload(t *testing.T) {
	req := require.New(t)

	_, err := NewEvent("chat-message", "lobby", func() {})

	req.Error(err)
}

func TestRoomChannel_Matches_Pattern(t *testing.T) {
	req := require.New(t)

	req.Equal("share:room:lobby", roomChannel("lobby"))
}
