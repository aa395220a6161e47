package client

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSession_Send_Before_Connect_Is_NotJoined(t *testing.T) {
	req := require.New(t)
	s := NewSession(Config{BaseURL: "http://localhost:8080", Name: "alice"})

	err := s.Send(context.Background(), "hello")

	req.ErrorIs(err, ErrNotJoined)
}

func TestSession_Join_Before_Connect_Fails(t *testing.T) {
	req := require.New(t)
	s := NewSession(Config{BaseURL: "http://localhost:8080", Name: "alice"})

	err := s.Join(context.Background(), "lobby")

	req.Error(err)
}

func TestSession_Connect_Requires_Base_URL(t *testing.T) {
	req := require.New(t)
	s := NewSession(Config{Name: "alice"})

	err := s.Connect(context.Background())

	req.Error(err)
}

func TestSession_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	s := NewSession(Config{BaseURL: "http://localhost:8080", Name: "alice"})

	req.NoError(s.Close())
	req.NoError(s.Close())
	req.Equal(StateClosed, s.State())
	req.ErrorIs(s.Send(context.Background(), "x"), ErrClosed)
	req.ErrorIs(s.Connect(context.Background()), ErrClosed)
}

func TestSessionState_String(t *testing.T) {
	req := require.New(t)

	req.Equal("unjoined", StateUnjoined.String())
	req.Equal("joining", StateJoining.String())
	req.Equal("joined", StateJoined.String())
	req.Equal("disconnected", StateDisconnected.String())
	req.Equal("closed", StateClosed.String())
}

func TestConfig_WithDefaults_Fills_Gaps(t *testing.T) {
	req := require.New(t)

	cfg := Config{BaseURL: "http://localhost:8080"}.withDefaults()

	req.Equal("Anonymous", cfg.Name)
	req.Positive(cfg.SendQueueSize)
	req.Positive(cfg.PendingSends)
	req.Positive(cfg.ReconnectDelay)
}

func TestSession_Error_Ref_Marks_Local_Entry_Failed(t *testing.T) {
	req := require.New(t)
	s := NewSession(Config{BaseURL: "http://localhost:8080", Name: "alice"})

	var got error
	s.OnError(func(err error) { got = err })
	s.timeline.AppendLocal("l1", "hi")

	s.route(envelope{
		Type:    typeError,
		Payload: json.RawMessage(`{"code":"storage_error","msg":"append failed","ref":"l1"}`),
	})

	msgs := s.Timeline().Messages()
	req.Len(msgs, 1)
	req.True(msgs[0].Failed)

	var srvErr *ServerError
	req.ErrorAs(got, &srvErr)
	req.Equal("storage_error", srvErr.Code)
	req.Equal("l1", srvErr.Ref)
}

func TestSession_Error_Without_Ref_Leaves_Timeline_Alone(t *testing.T) {
	req := require.New(t)
	s := NewSession(Config{BaseURL: "http://localhost:8080", Name: "alice"})

	s.timeline.AppendLocal("l1", "hi")
	s.route(envelope{
		Type:    typeError,
		Payload: json.RawMessage(`{"code":"not_joined","msg":"join a room first"}`),
	})

	msgs := s.Timeline().Messages()
	req.Len(msgs, 1)
	req.False(msgs[0].Failed)
}
