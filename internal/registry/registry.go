// Package registry tracks which connection belongs to which room. It is the
// only mutable shared structure in the hub; everything is keyed by the opaque
// connection handle, so joins and leaves of different connections never
// conflict.
package registry

import (
	"sync"
	"time"
)

// Handle identifies one live connection. The dynamic type must be comparable
// (in practice a pointer to the transport connection).
type Handle any

// Membership is the transient participant<->room relation. It exists only
// while the connection is live.
type Membership struct {
	Room     string
	Name     string
	JoinedAt time.Time
}

// Registry is an instance-scoped membership table. It is not a package-level
// singleton so tests can run isolated hubs side by side.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]map[Handle]struct{} // room id -> set of handles
	members map[Handle]Membership
}

func New() *Registry {
	return &Registry{
		rooms:   make(map[string]map[Handle]struct{}),
		members: make(map[Handle]Membership),
	}
}

// Join adds h to roomID, removing it from any prior room first: one
// connection holds at most one membership. Idempotent when already a member
// of roomID.
func (r *Registry) Join(h Handle, roomID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.members[h]; ok {
		if prev.Room == roomID {
			// keep the original JoinedAt, refresh the name only
			prev.Name = name
			r.members[h] = prev
			return
		}
		r.removeLocked(h, prev.Room)
	}

	rs, ok := r.rooms[roomID]
	if !ok {
		rs = make(map[Handle]struct{})
		r.rooms[roomID] = rs
	}
	rs[h] = struct{}{}
	r.members[h] = Membership{Room: roomID, Name: name, JoinedAt: time.Now()}
}

// Leave removes the membership of h. Unknown handles are silently ignored:
// disconnect events may race with join.
func (r *Registry) Leave(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[h]
	if !ok {
		return
	}
	r.removeLocked(h, m.Room)
}

func (r *Registry) removeLocked(h Handle, roomID string) {
	if rs, ok := r.rooms[roomID]; ok {
		delete(rs, h)
		if len(rs) == 0 {
			delete(r.rooms, roomID)
		}
	}
	delete(r.members, h)
}

// MembersOf returns a snapshot of the handles currently in roomID. The copy
// makes broadcast delivery atomic with respect to membership changes: a join
// mid-broadcast may or may not see that event, never a torn one.
func (r *Registry) MembersOf(roomID string) []Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Handle, 0, len(rs))
	for h := range rs {
		out = append(out, h)
	}
	return out
}

// Lookup returns the current membership of h, if any.
func (r *Registry) Lookup(h Handle) (Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[h]
	return m, ok
}

// Count reports the number of members in roomID.
func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[roomID])
}
