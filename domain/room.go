package domain

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// RoomID is a slug derived from the room name.
type RoomID string

var whitespaceRun = regexp.MustCompile(`\s+`)

// DeriveRoomID lowercases the name and collapses whitespace runs into
// single hyphens. Distinct names may derive the same id; the registry
// does not reject the collision, the newer room shadows the older one.
func DeriveRoomID(name string) RoomID {
	slug := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return RoomID(slug)
}

// Room is a named partition of the message log.
type Room struct {
	ID          RoomID
	Name        string
	MemberCount int
	CreatedAt   time.Time
}

// RoomList keeps rooms in insertion order and resolves them by id.
// Safe for concurrent use.
type RoomList struct {
	mu    sync.RWMutex
	order []RoomID
	rooms map[RoomID]*Room
}

func NewRoomList() *RoomList {
	return &RoomList{rooms: make(map[RoomID]*Room)}
}

// Add registers a pre-built room, preserving insertion order.
// A room whose id is already present shadows the previous entry in the
// map but keeps both positions in the order; lookups resolve to the
// newest room.
func (l *RoomList) Add(room Room) RoomID {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := room
	l.order = append(l.order, r.ID)
	l.rooms[r.ID] = &r
	return r.ID
}

// Create derives the id from the name and registers a fresh room with a
// single member.
func (l *RoomList) Create(name string, at time.Time) RoomID {
	return l.Add(Room{
		ID:          DeriveRoomID(name),
		Name:        name,
		MemberCount: 1,
		CreatedAt:   at,
	})
}

// Get returns the room currently registered under id.
func (l *RoomList) Get(id RoomID) (Room, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.rooms[id]
	if !ok {
		return Room{}, false
	}
	return *r, true
}

// Exists reports whether id resolves to a room.
func (l *RoomList) Exists(id RoomID) bool {
	_, ok := l.Get(id)
	return ok
}

// List returns rooms in insertion order. Duplicate-slug entries are
// collapsed onto the surviving room.
func (l *RoomList) List() []Room {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[RoomID]struct{}, len(l.order))
	out := make([]Room, 0, len(l.order))
	for _, id := range l.order {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if r, ok := l.rooms[id]; ok {
			out = append(out, *r)
		}
	}
	return out
}

// SetMemberCount overwrites the membership figure for a room.
func (l *RoomList) SetMemberCount(id RoomID, count int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.rooms[id]; ok {
		r.MemberCount = count
	}
}
