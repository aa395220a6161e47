package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pacis-link/share-service/internal/pubsub"
	"github.com/pacis-link/share-service/internal/registry"
)

// Conn is one live member connection. Send must not block: implementations
// enqueue and a full queue is reported as an error, never a stall.
type Conn interface {
	Send(msg Message) error
	Close() error
	Name() string
}

// Hub fans events out to room members. Delivery is best-effort per member;
// an unreachable or slow member is skipped, not retried, and never delays
// the rest of the room.
type Hub struct {
	reg    *registry.Registry
	bridge pubsub.Bridge // optional cross-instance relay
}

func NewHub(reg *registry.Registry) *Hub {
	return &Hub{reg: reg}
}

// SetBridge attaches the cross-instance relay. Call before serving traffic.
func (h *Hub) SetBridge(b pubsub.Bridge) { h.bridge = b }

// Registry exposes the membership table to the transport layer.
func (h *Hub) Registry() *registry.Registry { return h.reg }

func (h *Hub) Join(c Conn, roomID, name string) {
	h.reg.Join(c, roomID, name)
}

func (h *Hub) Leave(c Conn) {
	h.reg.Leave(c)
}

// Broadcast delivers msg to every member of roomID except exclude (pass nil
// to reach everyone), then relays it to other hub instances when a bridge is
// attached. Events never cross room boundaries.
func (h *Hub) Broadcast(roomID string, msg Message, exclude Conn) {
	h.deliver(roomID, msg, exclude)

	if h.bridge != nil {
		payload, err := json.Marshal(msg.Payload)
		if err != nil {
			slog.Warn("hub: relay encode failed", "type", msg.Type, "err", err)
			return
		}
		ev := &pubsub.Event{Type: msg.Type, Room: roomID, Payload: payload}
		if err := h.bridge.Publish(context.Background(), ev); err != nil {
			slog.Warn("hub: relay publish failed", "room", roomID, "err", err)
		}
	}
}

// RunBridge folds foreign instance events into local delivery. Blocks until
// ctx is done; a no-op when no bridge is attached.
func (h *Hub) RunBridge(ctx context.Context) error {
	if h.bridge == nil {
		return nil
	}
	return h.bridge.Run(ctx, func(ev pubsub.Event) {
		h.deliver(ev.Room, Message{Type: ev.Type, Payload: ev.Payload}, nil)
	})
}

func (h *Hub) deliver(roomID string, msg Message, exclude Conn) {
	for _, member := range h.reg.MembersOf(roomID) {
		if member == registry.Handle(exclude) {
			continue
		}
		c, ok := member.(Conn)
		if !ok {
			continue
		}
		_ = c.Send(msg) // best-effort
	}
}
