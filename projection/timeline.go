// Package projection builds local read models from observed events.
// It consumes, never emits.
package projection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chathub/domain"
	"chathub/domain/event"
)

// RoomSummary is the denormalized per-room digest the sidebar renders:
// last message snippet, its timestamp, and the unread counter.
type RoomSummary struct {
	Room    domain.RoomID
	Author  string
	Snippet string
	At      time.Time
	Unread  int
}

// Timeline folds domain events into room summaries. The active room
// never accumulates unread messages; switching rooms resets the
// counter of the newly selected one.
type Timeline struct {
	mu        sync.RWMutex
	active    domain.RoomID
	summaries map[domain.RoomID]*RoomSummary
}

func NewTimeline() *Timeline {
	return &Timeline{summaries: make(map[domain.RoomID]*RoomSummary)}
}

func (t *Timeline) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessagePosted:
		t.record(evt.Message)
	case event.RoomCreated:
		t.ensure(evt.Room.ID)
	}
	return nil
}

// SetActive marks the room the viewer is looking at and clears its
// unread counter.
func (t *Timeline) SetActive(room domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = room
	if s, ok := t.summaries[room]; ok {
		s.Unread = 0
	}
}

// Summary returns the digest for one room.
func (t *Timeline) Summary(room domain.RoomID) (RoomSummary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.summaries[room]
	if !ok {
		return RoomSummary{}, false
	}
	return *s, true
}

func (t *Timeline) record(m domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.ensureLocked(m.Room)
	s.Author = m.Author
	s.Snippet = snippet(m)
	s.At = m.At
	if m.Room != t.active {
		s.Unread++
	}
}

func (t *Timeline) ensure(room domain.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureLocked(room)
}

func (t *Timeline) ensureLocked(room domain.RoomID) *RoomSummary {
	s, ok := t.summaries[room]
	if !ok {
		s = &RoomSummary{Room: room}
		t.summaries[room] = s
	}
	return s
}

// snippet condenses a message into one sidebar line.
func snippet(m domain.Message) string {
	switch p := m.Payload.(type) {
	case nil:
		return m.Content
	case domain.Attachment:
		return fmt.Sprintf("[%s] %s", m.Kind(), p.Name)
	case domain.VoiceNote:
		return fmt.Sprintf("[voice] %ds", int(p.Duration.Seconds()))
	case domain.Sticker:
		return p.Glyph
	case *domain.Poll:
		return "[poll] " + p.Question
	case domain.CallSchedule:
		return "[call] " + p.Title
	default:
		return m.Content
	}
}
