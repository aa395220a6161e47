package domain

import "time"

// DefaultRoom is used whenever a request carries no room identifier.
const DefaultRoom = "lobby"

// Message is immutable once created: appended to the message store,
// broadcast once, never mutated or deleted.
type Message struct {
	ID        string    `json:"id" db:"id"`
	Room      string    `json:"room" db:"room_id"`
	Sender    string    `json:"sender" db:"sender"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// RoomOrDefault normalizes an incoming room identifier.
// Room identifiers are case-sensitive, so no folding happens here.
func RoomOrDefault(room string) string {
	if room == "" {
		return DefaultRoom
	}
	return room
}
