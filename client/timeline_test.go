package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTimeline_LoadSnapshot_Orders_Oldest_First(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("alice")

	tl.LoadSnapshot([]MessageEvent{
		{ID: "m3", Sender: "bob", Text: "third", TS: 300},
		{ID: "m1", Sender: "bob", Text: "first", TS: 100},
		{ID: "m2", Sender: "bob", Text: "second", TS: 200},
	})

	msgs := tl.Messages()
	req.Len(msgs, 3)
	req.Equal("first", msgs[0].Text)
	req.Equal("second", msgs[1].Text)
	req.Equal("third", msgs[2].Text)
}

func TestTimeline_Own_Echo_Is_Suppressed(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("alice")

	tl.AppendLocal("l1", "hi")
	appended := tl.ObserveMessage(MessageEvent{ID: "m1", Sender: "alice", Text: "hi", TS: 100})

	req.False(appended)
	msgs := tl.Messages()
	req.Len(msgs, 1)
	req.True(msgs[0].Local)
}

func TestTimeline_Repeated_Own_Sends_Stay_Distinct(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("alice")

	// the same text twice is two messages, not one
	tl.AppendLocal("l1", "hi")
	tl.ObserveMessage(MessageEvent{ID: "m1", Sender: "alice", Text: "hi", TS: 100})
	tl.AppendLocal("l2", "hi")
	tl.ObserveMessage(MessageEvent{ID: "m2", Sender: "alice", Text: "hi", TS: 200})

	req.Len(tl.Messages(), 2)
}

func TestTimeline_Peer_Sees_Exactly_One_Copy(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("bob")

	appended := tl.ObserveMessage(MessageEvent{ID: "m1", Sender: "alice", Text: "hi", TS: 100})

	req.True(appended)
	req.Len(tl.Messages(), 1)
}

func TestTimeline_Duplicate_Id_From_Snapshot_Race_Is_Dropped(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("bob")

	// snapshot already contains m1; the live echo of m1 must not re-append
	tl.LoadSnapshot([]MessageEvent{{ID: "m1", Sender: "alice", Text: "hi", TS: 100}})
	appended := tl.ObserveMessage(MessageEvent{ID: "m1", Sender: "alice", Text: "hi", TS: 100})

	req.False(appended)
	req.Len(tl.Messages(), 1)
}

func TestTimeline_Files_Dedup_By_Id(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("alice")

	first := tl.ObserveFile(FileEvent{FileID: "f1", Filename: "a.txt"})
	second := tl.ObserveFile(FileEvent{FileID: "f1", Filename: "a.txt"})

	req.True(first)
	req.False(second)
	req.Len(tl.Files(), 1)
}

func TestTimeline_Snapshot_Keeps_Live_Events_Seen_First(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("bob")

	// a live event landing before the history fetch returns must survive
	// the snapshot load even when the snapshot does not carry it yet
	tl.ObserveMessage(MessageEvent{ID: "m2", Sender: "alice", Text: "late", TS: 200})
	tl.LoadSnapshot([]MessageEvent{{ID: "m1", Sender: "alice", Text: "early", TS: 100}})

	msgs := tl.Messages()
	req.Len(msgs, 2)
	req.Equal("early", msgs[0].Text)
	req.Equal("late", msgs[1].Text)
}

func TestTimeline_Snapshot_Keeps_Local_Entries(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("alice")

	tl.AppendLocal("l1", "hi")
	tl.LoadSnapshot(nil)

	msgs := tl.Messages()
	req.Len(msgs, 1)
	req.True(msgs[0].Local)
	req.Equal("hi", msgs[0].Text)
}

func TestTimeline_Snapshot_Dedups_Already_Seen_Ids(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("bob")

	tl.ObserveMessage(MessageEvent{ID: "m1", Sender: "alice", Text: "hi", TS: 100})
	tl.LoadSnapshot([]MessageEvent{{ID: "m1", Sender: "alice", Text: "hi", TS: 100}})

	req.Len(tl.Messages(), 1)
}

func TestTimeline_MarkFailed_Flags_Local_Entry(t *testing.T) {
	req := require.New(t)
	tl := NewTimeline("alice")

	tl.AppendLocal("l1", "hi")
	req.True(tl.MarkFailed("l1"))
	req.False(tl.MarkFailed("l1"))
	req.False(tl.MarkFailed("unknown"))

	msgs := tl.Messages()
	req.Len(msgs, 1)
	req.True(msgs[0].Failed)
}
