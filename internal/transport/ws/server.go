package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pacis-link/share-service/internal/domain"
)

// ChatSvc persists a message before it is broadcast.
type ChatSvc interface {
	Save(ctx context.Context, roomID, sender, content string) (*domain.Message, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	chatSvc  ChatSvc

	pingEvery time.Duration
	sendQueue int
}

func NewServer(hub *Hub, chat ChatSvc) *Server {
	return &Server{
		hub:     hub,
		chatSvc: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
		sendQueue: 32,
	}
}

// WS endpoint: GET /ws?name=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Anonymous"
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWSConn(conn, name, s.sendQueue)
	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	// transport teardown: drop membership and tell the room
	if m, ok := s.hub.Registry().Lookup(c); ok {
		s.hub.Leave(c)
		s.hub.Broadcast(m.Room, Message{
			Type:    TypePeerLeft,
			Payload: PeerPayload{Room: m.Room, Name: c.Name()},
		}, c)
	}

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "name", name, "err", err)
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case TypeJoinRoom:
			s.handleJoin(c, msg)
		case TypeChat:
			s.handleChat(ctx, c, msg)
		case TypeFileShared:
			// Share events originate from the upload path on the server;
			// a client-sent one would duplicate it.
			slog.Debug("ws: ignoring client file-shared", "name", c.Name())
		default:
			// ignore
		}
	}
}

func (s *Server) handleJoin(c *wsConn, msg Message) {
	var p JoinPayload
	if decode(msg.Payload, &p) != nil {
		_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Code: ErrCodeBadEvent, Msg: "bad join payload"}})
		return
	}
	room := domain.RoomOrDefault(strings.TrimSpace(p.Room))
	if p.Name != "" {
		c.name = p.Name
	}

	prev, wasJoined := s.hub.Registry().Lookup(c)
	if wasJoined && prev.Room == room {
		return
	}

	// joining a new room implicitly leaves the prior one
	s.hub.Join(c, room, c.Name())
	if wasJoined {
		s.hub.Broadcast(prev.Room, Message{
			Type:    TypePeerLeft,
			Payload: PeerPayload{Room: prev.Room, Name: c.Name()},
		}, c)
	}
	s.hub.Broadcast(room, Message{
		Type:    TypePeerJoined,
		Payload: PeerPayload{Room: room, Name: c.Name()},
	}, c)
}

// handleChat persists first and broadcasts only after the append committed,
// so any later history fetch includes every message that was ever fanned
// out. A failed append reaches the sender alone and emits nothing.
func (s *Server) handleChat(ctx context.Context, c *wsConn, msg Message) {
	var p ChatPayload
	if decode(msg.Payload, &p) != nil {
		_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Code: ErrCodeBadEvent, Msg: "bad chat payload"}})
		return
	}

	m, joined := s.hub.Registry().Lookup(c)
	if !joined {
		_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Code: ErrCodeNotJoined, Msg: domain.ErrNotJoined.Error(), Ref: p.ID}})
		return
	}

	stored, err := s.chatSvc.Save(ctx, m.Room, c.Name(), p.Message)
	if err != nil {
		slog.Warn("ws chat save failed", "room", m.Room, "name", c.Name(), "err", err)
		code := ErrCodeStorage
		if errors.Is(err, domain.ErrMessageEmpty) || errors.Is(err, domain.ErrMessageTooLong) {
			code = ErrCodeBadEvent
		}
		_ = c.Send(Message{Type: TypeError, Payload: ErrorPayload{Code: code, Msg: err.Error(), Ref: p.ID}})
		return
	}

	// sender already rendered optimistically; exclude it from the echo
	s.hub.Broadcast(m.Room, Message{
		Type: TypeChat,
		Payload: ChatPayload{
			ID:      stored.ID,
			Room:    stored.Room,
			Sender:  stored.Sender,
			Message: stored.Content,
			TSUnix:  stored.CreatedAt.Unix(),
		},
	}, c)
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// wsConn wraps one gorilla connection. Outbound messages go through a
// buffered queue drained by writeLoop; Send never blocks. Close is safe
// to call from the read and write loops concurrently.
type wsConn struct {
	conn      *websocket.Conn
	name      string
	out       chan Message
	closed    chan struct{}
	closeOnce sync.Once
}

func newWSConn(c *websocket.Conn, name string, queue int) *wsConn {
	return &wsConn{
		conn:   c,
		name:   name,
		out:    make(chan Message, queue),
		closed: make(chan struct{}),
	}
}

var errSendQueueFull = errors.New("send queue full")

func (c *wsConn) Send(msg Message) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	case c.out <- msg:
		return nil
	default:
		// slow consumer: drop rather than stall the room
		return errSendQueueFull
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *wsConn) Name() string { return c.name }
