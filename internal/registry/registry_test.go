package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type handle struct{ id string }

func TestRegistry_Join_Single_Room(t *testing.T) {
	req := require.New(t)
	r := New()
	h := &handle{id: "a"}

	r.Join(h, "lobby", "alice")

	m, ok := r.Lookup(h)
	req.True(ok)
	req.Equal("lobby", m.Room)
	req.Equal("alice", m.Name)
	req.False(m.JoinedAt.IsZero())
	req.Equal(1, r.Count("lobby"))
}

func TestRegistry_Join_Switches_Rooms(t *testing.T) {
	req := require.New(t)
	r := New()
	h := &handle{id: "a"}

	r.Join(h, "lobby", "alice")
	r.Join(h, "design", "alice")

	m, ok := r.Lookup(h)
	req.True(ok)
	req.Equal("design", m.Room)
	req.Equal(0, r.Count("lobby"))
	req.Equal(1, r.Count("design"))
}

func TestRegistry_Join_Same_Room_Keeps_JoinedAt(t *testing.T) {
	req := require.New(t)
	r := New()
	h := &handle{id: "a"}

	r.Join(h, "lobby", "alice")
	first, _ := r.Lookup(h)

	r.Join(h, "lobby", "alice2")
	second, _ := r.Lookup(h)

	req.Equal(first.JoinedAt, second.JoinedAt)
	req.Equal("alice2", second.Name)
	req.Equal(1, r.Count("lobby"))
}

func TestRegistry_Leave_Unknown_Handle_Is_Noop(t *testing.T) {
	req := require.New(t)
	r := New()

	r.Leave(&handle{id: "ghost"})

	req.Equal(0, r.Count("lobby"))
}

func TestRegistry_Leave_Removes_Membership(t *testing.T) {
	req := require.New(t)
	r := New()
	h := &handle{id: "a"}

	r.Join(h, "lobby", "alice")
	r.Leave(h)

	_, ok := r.Lookup(h)
	req.False(ok)
	req.Equal(0, r.Count("lobby"))
	req.Empty(r.MembersOf("lobby"))
}

func TestRegistry_MembersOf_Is_A_Snapshot(t *testing.T) {
	req := require.New(t)
	r := New()
	a, b := &handle{id: "a"}, &handle{id: "b"}

	r.Join(a, "lobby", "alice")
	r.Join(b, "lobby", "bob")

	members := r.MembersOf("lobby")
	r.Leave(a)

	req.Len(members, 2)
	req.Equal(1, r.Count("lobby"))
}

func TestRegistry_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	r := New()

	r.Join(&handle{id: "a"}, "lobby", "alice")
	r.Join(&handle{id: "b"}, "design", "bob")

	req.Len(r.MembersOf("lobby"), 1)
	req.Len(r.MembersOf("design"), 1)
}
