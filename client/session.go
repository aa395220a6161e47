package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

// Session is a live connection to a share-service room. It owns the
// socket, a Timeline reconciling history with the live feed, and the
// join state machine: sends issued while a join is in flight are held
// and flushed once the join frame is on the wire.
//
// Register callbacks before Connect. The On* setters are not
// synchronized with the read loop, so registering one after the loop
// starts is a data race.
type Session struct {
	cfg        Config
	rest       *RESTClient
	dispatcher Dispatcher
	timeline   *Timeline

	mu      sync.Mutex
	state   SessionState
	room    string
	ws      *websocket.Conn
	writeCh chan outFrame
	pending []pendingSend
	cancel  context.CancelFunc
}

type outFrame struct {
	env      outEnvelope
	joinRoom string // set when this frame is a join; confirms the state machine
	chatID   string // client-assigned id of a chat frame, for failure marking
}

// pendingSend is a message held while a join is in flight, already
// rendered optimistically under its client-assigned id.
type pendingSend struct {
	id   string
	text string
}

// NewSession constructs a session. Use DefaultConfig() as a starting
// point and adjust as needed.
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:      cfg,
		rest:     NewRESTClient(cfg.BaseURL),
		timeline: NewTimeline(cfg.Name),
		state:    StateDisconnected,
	}
}

// REST exposes the HTTP client sharing this session's base URL.
func (s *Session) REST() *RESTClient { return s.rest }

// Timeline exposes the reconciled room timeline.
func (s *Session) Timeline() *Timeline { return s.timeline }

// OnMessage registers a callback for chat messages that survived
// timeline reconciliation.
func (s *Session) OnMessage(fn func(MessageEvent)) { s.dispatcher.SetOnMessage(fn) }

// OnFile registers a callback for deduped share announcements.
func (s *Session) OnFile(fn func(FileEvent)) { s.dispatcher.SetOnFile(fn) }

// OnPeerJoined registers a callback for membership arrivals.
func (s *Session) OnPeerJoined(fn func(PeerEvent)) { s.dispatcher.SetOnPeerJoined(fn) }

// OnPeerLeft registers a callback for membership departures.
func (s *Session) OnPeerLeft(fn func(PeerEvent)) { s.dispatcher.SetOnPeerLeft(fn) }

// OnStateChange registers a callback for session state transitions.
func (s *Session) OnStateChange(fn func(StateEvent)) { s.dispatcher.SetOnStateChange(fn) }

// OnError registers a callback for socket and protocol errors.
func (s *Session) OnError(fn func(error)) { s.dispatcher.SetOnError(fn) }

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect dials the socket and starts the internal loops. When the
// config names a room it is joined immediately.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.ws != nil {
		s.mu.Unlock()
		return errors.New("already connected")
	}
	s.mu.Unlock()

	if s.cfg.BaseURL == "" {
		return errors.New("empty base URL")
	}
	ws, err := s.dial(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.ws = ws
	s.cancel = cancel
	s.writeCh = make(chan outFrame, s.cfg.SendQueueSize)
	s.setStateLocked(StateUnjoined, nil)
	s.mu.Unlock()

	go s.readLoop(runCtx, ws)
	go s.writeLoop(runCtx, ws)

	if s.cfg.Room != "" {
		return s.Join(ctx, s.cfg.Room)
	}
	return nil
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"name": {s.cfg.Name}}.Encode()

	dialCtx := ctx
	if s.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
		defer cancel()
	}
	ws, _, err := websocket.Dial(dialCtx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(1 << 20)
	return ws, nil
}

// Join enters a room. Joining a new room implicitly leaves the current
// one; joining the current room is a no-op.
func (s *Session) Join(ctx context.Context, room string) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateDisconnected:
		s.mu.Unlock()
		return errors.New("not connected")
	case StateJoined:
		if s.room == room {
			s.mu.Unlock()
			return nil
		}
	}
	s.room = room
	s.setStateLocked(StateJoining, nil)
	ch := s.writeCh
	s.mu.Unlock()

	frame := outFrame{
		env:      outEnvelope{Type: typeJoinRoom, Payload: joinPayload{Room: room, Name: s.cfg.Name}},
		joinRoom: room,
	}
	select {
	case ch <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send publishes a chat message to the current room. While a join is in
// flight the message is held and flushed once the join frame is written;
// a full holding queue returns ErrNotReady. Every send carries a
// client-assigned id; when the write fails or the server answers with an
// error referencing that id, the optimistic timeline entry is marked
// failed so the application can retry it.
func (s *Session) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateUnjoined, StateDisconnected:
		s.mu.Unlock()
		return ErrNotJoined
	case StateJoining:
		if len(s.pending) >= s.cfg.PendingSends {
			s.mu.Unlock()
			return ErrNotReady
		}
		id := uuid.NewString()
		s.pending = append(s.pending, pendingSend{id: id, text: text})
		s.mu.Unlock()
		s.timeline.AppendLocal(id, text)
		return nil
	}
	room := s.room
	ch := s.writeCh
	s.mu.Unlock()

	id := uuid.NewString()
	s.timeline.AppendLocal(id, text)
	frame := outFrame{env: outEnvelope{Type: typeChat, Payload: chatPayload{
		ID:      id,
		Room:    room,
		Sender:  s.cfg.Name,
		Message: text,
	}}, chatID: id}
	select {
	case ch <- frame:
		return nil
	case <-ctx.Done():
		s.timeline.MarkFailed(id)
		return ctx.Err()
	}
}

// SyncHistory fetches the room snapshot over REST and loads it into the
// timeline, oldest first. Call it after Join; live events arriving in
// between are reconciled by id.
func (s *Session) SyncHistory(ctx context.Context) error {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()
	if room == "" {
		return ErrNotJoined
	}

	items, err := s.rest.History(ctx, room)
	if err != nil {
		return err
	}
	events := make([]MessageEvent, 0, len(items))
	for _, it := range items {
		events = append(events, MessageEvent{
			ID:     it.ID,
			Room:   it.Room,
			Sender: it.Sender,
			Text:   it.Content,
			TS:     it.CreatedAt.Unix(),
		})
	}
	s.timeline.LoadSnapshot(events)
	return nil
}

// Upload shares a file into the current room. The announcement echoed
// back on the socket is deduped by file id.
func (s *Session) Upload(ctx context.Context, filename string, r io.Reader) (*FileItem, error) {
	s.mu.Lock()
	room := s.room
	state := s.state
	s.mu.Unlock()
	if state == StateClosed {
		return nil, ErrClosed
	}
	if room == "" {
		return nil, ErrNotJoined
	}

	item, err := s.rest.Upload(ctx, room, s.cfg.Name, filename, r)
	if err != nil {
		return nil, err
	}
	s.timeline.ObserveFile(FileEvent{
		Room:     item.Room,
		FileID:   item.ID,
		Filename: item.OriginalName,
		Sender:   item.Sender,
		TS:       item.UploadedAt.Unix(),
	})
	return item, nil
}

// Close shuts the session down. Further calls return ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.setStateLocked(StateClosed, nil)
	if s.cancel != nil {
		s.cancel()
	}
	ws := s.ws
	s.ws = nil
	s.mu.Unlock()

	if ws != nil {
		return ws.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}

func (s *Session) readLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		readCtx := ctx
		cancel := context.CancelFunc(func() {})
		if s.cfg.ReadTimeout > 0 {
			readCtx, cancel = context.WithTimeout(ctx, s.cfg.ReadTimeout)
		}
		var env envelope
		err := wsjson.Read(readCtx, ws, &env)
		cancel()
		if err != nil {
			s.handleDisconnect(ctx, err)
			return
		}
		s.route(env)
	}
}

func (s *Session) writeLoop(ctx context.Context, ws *websocket.Conn) {
	s.mu.Lock()
	ch := s.writeCh
	s.mu.Unlock()

	for {
		select {
		case frame := <-ch:
			writeCtx := ctx
			cancel := context.CancelFunc(func() {})
			if s.cfg.WriteTimeout > 0 {
				writeCtx, cancel = context.WithTimeout(ctx, s.cfg.WriteTimeout)
			}
			err := wsjson.Write(writeCtx, ws, frame.env)
			cancel()
			if err != nil {
				if frame.chatID != "" {
					s.timeline.MarkFailed(frame.chatID)
				}
				s.dispatcher.fireError(err)
				return
			}
			if frame.joinRoom != "" {
				s.confirmJoin(ctx, frame.joinRoom, ch)
			}
		case <-ctx.Done():
			return
		}
	}
}

// confirmJoin marks the session joined once the join frame is on the
// wire and flushes sends held while the join was in flight.
func (s *Session) confirmJoin(ctx context.Context, room string, ch chan outFrame) {
	s.mu.Lock()
	if s.state != StateJoining || s.room != room {
		s.mu.Unlock()
		return
	}
	held := s.pending
	s.pending = nil
	s.setStateLocked(StateJoined, nil)
	s.mu.Unlock()

	for i, p := range held {
		frame := outFrame{env: outEnvelope{Type: typeChat, Payload: chatPayload{
			ID:      p.id,
			Room:    room,
			Sender:  s.cfg.Name,
			Message: p.text,
		}}, chatID: p.id}
		select {
		case ch <- frame:
		case <-ctx.Done():
			for _, rest := range held[i:] {
				s.timeline.MarkFailed(rest.id)
			}
			return
		}
	}
}

// route folds live events through the timeline before callbacks fire, so
// suppressed echoes and duplicates never reach the application.
func (s *Session) route(env envelope) {
	switch env.Type {
	case typeChat:
		var p chatPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.dispatcher.fireError(err)
			return
		}
		ev := MessageEvent{ID: p.ID, Room: p.Room, Sender: p.Sender, Text: p.Message, TS: p.TSUnix}
		if s.timeline.ObserveMessage(ev) && s.dispatcher.onMessage != nil {
			s.dispatcher.onMessage(ev)
		}
	case typeFileShared:
		var p filePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.dispatcher.fireError(err)
			return
		}
		ev := FileEvent{Room: p.Room, FileID: p.FileID, Filename: p.Filename, Sender: p.Sender, TS: p.TSUnix}
		if s.timeline.ObserveFile(ev) && s.dispatcher.onFile != nil {
			s.dispatcher.onFile(ev)
		}
	case typeError:
		var p errorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.dispatcher.fireError(err)
			return
		}
		if p.Ref != "" {
			s.timeline.MarkFailed(p.Ref)
		}
		s.dispatcher.fireError(&ServerError{Code: p.Code, Msg: p.Msg, Ref: p.Ref})
	default:
		s.dispatcher.dispatch(env)
	}
}

func (s *Session) handleDisconnect(ctx context.Context, err error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.ws = nil
	s.setStateLocked(StateDisconnected, err)
	room := s.room
	s.mu.Unlock()

	if !isExpectedDisconnect(ctx, err) {
		s.dispatcher.fireError(err)
	}
	if s.cfg.Reconnect {
		go s.reconnectLoop(room)
	}
}

// reconnectLoop redials until the session closes, then rejoins the room
// the participant was in before the drop.
func (s *Session) reconnectLoop(room string) {
	for {
		s.mu.Lock()
		if s.state == StateClosed {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ReconnectDelay+s.cfg.HandshakeTimeout)
		ws, err := s.dial(ctx)
		cancel()
		if err != nil {
			time.Sleep(s.cfg.ReconnectDelay)
			continue
		}

		runCtx, runCancel := context.WithCancel(context.Background())
		s.mu.Lock()
		if s.state == StateClosed {
			s.mu.Unlock()
			runCancel()
			_ = ws.Close(websocket.StatusNormalClosure, "client close")
			return
		}
		s.ws = ws
		s.cancel = runCancel
		s.writeCh = make(chan outFrame, s.cfg.SendQueueSize)
		s.setStateLocked(StateUnjoined, nil)
		s.mu.Unlock()

		go s.readLoop(runCtx, ws)
		go s.writeLoop(runCtx, ws)

		if room != "" {
			_ = s.Join(context.Background(), room)
		}
		return
	}
}

// setStateLocked requires s.mu held. The callback fires without the lock.
func (s *Session) setStateLocked(next SessionState, err error) {
	old := s.state
	s.state = next
	if old == next {
		return
	}
	go s.dispatcher.fireState(StateEvent{Old: old, New: next, Err: err})
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
