package ws

import "github.com/pacis-link/share-service/internal/domain"

// ShareNotifier adapts the hub to the file service's share sink. The event
// goes to everyone in the room, uploader included: the uploader's client
// already rendered the file optimistically and suppresses the echo by id.
type ShareNotifier struct {
	hub *Hub
}

func NewShareNotifier(hub *Hub) *ShareNotifier {
	return &ShareNotifier{hub: hub}
}

func (n *ShareNotifier) FileShared(rec domain.FileRecord) {
	n.hub.Broadcast(rec.Room, Message{
		Type: TypeFileShared,
		Payload: FilePayload{
			Room:     rec.Room,
			FileID:   rec.ID,
			Filename: rec.OriginalName,
			Sender:   rec.Sender,
			TSUnix:   rec.UploadedAt.Unix(),
		},
	}, nil)
}
