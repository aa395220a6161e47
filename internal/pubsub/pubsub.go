// Package pubsub replicates room events across hub instances. A single
// instance does not need it; with the bridge enabled, every local broadcast
// is also published to Redis and foreign events are folded back into the
// local hub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event is one room-scoped event on the bus. Origin carries the publishing
// instance id so subscribers can drop their own events.
type Event struct {
	Type    string          `json:"type"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
	Origin  string          `json:"origin"`
	At      time.Time       `json:"at"`
}

// NewEvent wraps payload into an Event for room.
func NewEvent(eventType, room string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Type: eventType, Room: room, Payload: data, At: time.Now().UTC()}, nil
}

// Bridge is the cross-instance event bus.
type Bridge interface {
	Publish(ctx context.Context, ev *Event) error
	// Run delivers foreign events to apply until ctx is done. Own-origin
	// events are filtered out before apply is called.
	Run(ctx context.Context, apply func(Event)) error
	Close() error
}

const channelPattern = "share:room:*"

func roomChannel(room string) string {
	return fmt.Sprintf("share:room:%s", room)
}
