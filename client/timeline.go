package client

import (
	"sort"
	"sync"
	"time"
)

// Entry is one rendered line in a room timeline.
type Entry struct {
	ID     string
	Sender string
	Text   string
	TS     int64
	Local  bool // rendered optimistically before the server confirmed it
	Failed bool // the send behind this entry failed; safe to retry
}

// Timeline reconciles a history snapshot with the live channel for one
// participant. Own messages are rendered locally at send time, so live
// echoes from the same sender are suppressed; everything else is deduped
// by message id to survive the join/headers race. Files dedup by file id.
type Timeline struct {
	mu    sync.Mutex
	owner string

	entries []Entry
	seen    map[string]struct{}

	files   []FileEvent
	fileIDs map[string]struct{}
}

func NewTimeline(owner string) *Timeline {
	return &Timeline{
		owner:   owner,
		seen:    make(map[string]struct{}),
		fileIDs: make(map[string]struct{}),
	}
}

// LoadSnapshot merges a history snapshot into the timeline. The snapshot
// forms the base, ordered oldest first regardless of how the transport
// delivered it. Entries already present that the snapshot does not carry,
// live events that raced ahead of the history fetch and the owner's
// optimistic local entries, are kept and appended after it in their
// original order.
func (t *Timeline) LoadSnapshot(events []MessageEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sorted := make([]MessageEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TS != sorted[j].TS {
			return sorted[i].TS < sorted[j].TS
		}
		return sorted[i].ID < sorted[j].ID
	})

	merged := make([]Entry, 0, len(sorted)+len(t.entries))
	seen := make(map[string]struct{}, len(sorted))
	for _, ev := range sorted {
		merged = append(merged, Entry{ID: ev.ID, Sender: ev.Sender, Text: ev.Text, TS: ev.TS})
		if ev.ID != "" {
			seen[ev.ID] = struct{}{}
		}
	}
	for _, e := range t.entries {
		if e.Local {
			merged = append(merged, e)
			continue
		}
		if e.ID != "" {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
		}
		merged = append(merged, e)
	}

	t.entries = merged
	t.seen = seen
}

// AppendLocal renders the owner's own message before the server confirms
// it, keyed by the client-assigned id so a failed send can be marked
// later. The matching live echo is suppressed in ObserveMessage.
func (t *Timeline) AppendLocal(id, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{
		ID:     id,
		Sender: t.owner,
		Text:   text,
		TS:     time.Now().Unix(),
		Local:  true,
	})
}

// MarkFailed flags the local entry with the given client-assigned id as
// failed. It reports whether a matching entry was found.
func (t *Timeline) MarkFailed(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].Local && t.entries[i].ID == id && !t.entries[i].Failed {
			t.entries[i].Failed = true
			return true
		}
	}
	return false
}

// ObserveMessage folds a live chat event into the timeline. It reports
// whether the event was appended.
func (t *Timeline) ObserveMessage(ev MessageEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.ID != "" {
		if _, dup := t.seen[ev.ID]; dup {
			return false
		}
		t.seen[ev.ID] = struct{}{}
	}
	if ev.Sender == t.owner {
		// already rendered at send time
		return false
	}
	t.entries = append(t.entries, Entry{ID: ev.ID, Sender: ev.Sender, Text: ev.Text, TS: ev.TS})
	return true
}

// ObserveFile folds a share announcement in, deduping by file id so an
// uploader does not see its own file twice.
func (t *Timeline) ObserveFile(ev FileEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.FileID != "" {
		if _, dup := t.fileIDs[ev.FileID]; dup {
			return false
		}
		t.fileIDs[ev.FileID] = struct{}{}
	}
	t.files = append(t.files, ev)
	return true
}

// Messages returns a copy of the current timeline, oldest first.
func (t *Timeline) Messages() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Files returns the deduped share announcements in arrival order.
func (t *Timeline) Files() []FileEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]FileEvent, len(t.files))
	copy(out, t.files)
	return out
}
