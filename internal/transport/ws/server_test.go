package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/pacis-link/share-service/internal/domain"
	"github.com/pacis-link/share-service/internal/registry"
	"github.com/pacis-link/share-service/internal/service"
)

type appendOnlyStore struct {
	msgs []domain.Message
}

func (s *appendOnlyStore) AppendMessage(_ context.Context, msg domain.Message) error {
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *appendOnlyStore) ListMessages(_ context.Context, _ string) ([]domain.Message, error) {
	return s.msgs, nil
}

type rawEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialPeer(t *testing.T, srv *httptest.Server, name string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?name=" + name
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) rawEnvelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env rawEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func newWSTestServer(t *testing.T) (*httptest.Server, *appendOnlyStore) {
	t.Helper()
	store := &appendOnlyStore{}
	hub := NewHub(registry.New())
	server := NewServer(hub, service.NewChatService(store, 0))

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestWS_Join_Announces_Peer(t *testing.T) {
	req := require.New(t)
	srv, _ := newWSTestServer(t)

	alice := dialPeer(t, srv, "alice")
	req.NoError(alice.WriteJSON(Message{Type: TypeJoinRoom, Payload: JoinPayload{Room: "lobby", Name: "alice"}}))

	// give the join time to land before bob arrives
	time.Sleep(100 * time.Millisecond)

	bob := dialPeer(t, srv, "bob")
	req.NoError(bob.WriteJSON(Message{Type: TypeJoinRoom, Payload: JoinPayload{Room: "lobby", Name: "bob"}}))

	env := readEnvelope(t, alice)
	req.Equal(TypePeerJoined, env.Type)

	var p PeerPayload
	req.NoError(json.Unmarshal(env.Payload, &p))
	req.Equal("bob", p.Name)
	req.Equal("lobby", p.Room)
}

func TestWS_Chat_Persists_And_Fans_Out_Excluding_Sender(t *testing.T) {
	req := require.New(t)
	srv, store := newWSTestServer(t)

	alice := dialPeer(t, srv, "alice")
	req.NoError(alice.WriteJSON(Message{Type: TypeJoinRoom, Payload: JoinPayload{Room: "lobby", Name: "alice"}}))
	time.Sleep(100 * time.Millisecond)

	bob := dialPeer(t, srv, "bob")
	req.NoError(bob.WriteJSON(Message{Type: TypeJoinRoom, Payload: JoinPayload{Room: "lobby", Name: "bob"}}))

	// drain bob's arrival on alice's socket
	env := readEnvelope(t, alice)
	req.Equal(TypePeerJoined, env.Type)

	req.NoError(alice.WriteJSON(Message{Type: TypeChat, Payload: ChatPayload{Room: "lobby", Message: "hello"}}))

	env = readEnvelope(t, bob)
	req.Equal(TypeChat, env.Type)

	var p ChatPayload
	req.NoError(json.Unmarshal(env.Payload, &p))
	req.Equal("hello", p.Message)
	req.Equal("alice", p.Sender)
	req.NotEmpty(p.ID)

	// durably recorded before the fan-out
	req.Len(store.msgs, 1)
	req.Equal("hello", store.msgs[0].Content)

	// the sender gets no echo back
	req.NoError(alice.SetReadDeadline(time.Now().Add(300 * time.Millisecond)))
	var stray rawEnvelope
	req.Error(alice.ReadJSON(&stray))
}

func TestWS_Chat_Before_Join_Returns_NotJoined(t *testing.T) {
	req := require.New(t)
	srv, store := newWSTestServer(t)

	conn := dialPeer(t, srv, "loner")
	req.NoError(conn.WriteJSON(Message{Type: TypeChat, Payload: ChatPayload{Room: "lobby", Message: "hello?"}}))

	env := readEnvelope(t, conn)
	req.Equal(TypeError, env.Type)

	var p ErrorPayload
	req.NoError(json.Unmarshal(env.Payload, &p))
	req.Equal(ErrCodeNotJoined, p.Code)
	req.Empty(store.msgs)
}

func TestWS_Join_Switches_Rooms(t *testing.T) {
	req := require.New(t)
	srv, _ := newWSTestServer(t)

	watcher := dialPeer(t, srv, "watcher")
	req.NoError(watcher.WriteJSON(Message{Type: TypeJoinRoom, Payload: JoinPayload{Room: "lobby", Name: "watcher"}}))
	time.Sleep(100 * time.Millisecond)

	mover := dialPeer(t, srv, "mover")
	req.NoError(mover.WriteJSON(Message{Type: TypeJoinRoom, Payload: JoinPayload{Room: "lobby", Name: "mover"}}))

	env := readEnvelope(t, watcher)
	req.Equal(TypePeerJoined, env.Type)

	req.NoError(mover.WriteJSON(Message{Type: TypeJoinRoom, Payload: JoinPayload{Room: "design", Name: "mover"}}))

	env = readEnvelope(t, watcher)
	req.Equal(TypePeerLeft, env.Type)

	var p PeerPayload
	req.NoError(json.Unmarshal(env.Payload, &p))
	req.Equal("mover", p.Name)
	req.Equal("lobby", p.Room)
}

func TestWS_Disconnect_Announces_Peer_Left(t *testing.T) {
	req := require.New(t)
	srv, _ := newWSTestServer(t)

	watcher := dialPeer(t, srv, "watcher")
	req.NoError(watcher.WriteJSON(Message{Type: TypeJoinRoom, Payload: JoinPayload{Room: "lobby", Name: "watcher"}}))
	time.Sleep(100 * time.Millisecond)

	ghost := dialPeer(t, srv, "ghost")
	req.NoError(ghost.WriteJSON(Message{Type: TypeJoinRoom, Payload: JoinPayload{Room: "lobby", Name: "ghost"}}))

	env := readEnvelope(t, watcher)
	req.Equal(TypePeerJoined, env.Type)

	req.NoError(ghost.Close())

	env = readEnvelope(t, watcher)
	req.Equal(TypePeerLeft, env.Type)
}

func TestWS_Chat_Error_Echoes_Client_Message_Id(t *testing.T) {
	req := require.New(t)
	srv, _ := newWSTestServer(t)

	alice := dialPeer(t, srv, "alice")

	// chat before join carries a client-assigned id; the error must
	// reference it so the client can mark the right entry failed
	req.NoError(alice.WriteJSON(Message{Type: TypeChat, Payload: ChatPayload{ID: "local-1", Message: "hello"}}))

	env := readEnvelope(t, alice)
	req.Equal(TypeError, env.Type)

	var p ErrorPayload
	req.NoError(json.Unmarshal(env.Payload, &p))
	req.Equal(ErrCodeNotJoined, p.Code)
	req.Equal("local-1", p.Ref)
}

func TestWS_Conn_Close_Is_Safe_Concurrently(t *testing.T) {
	req := require.New(t)
	srv, _ := newWSTestServer(t)

	conn := dialPeer(t, srv, "alice")
	c := newWSConn(conn, "alice", 4)

	// read and write loops both close the conn on their own failure paths
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Close()
		}()
	}
	wg.Wait()

	err := c.Send(Message{Type: TypeChat})
	req.Error(err)
}
