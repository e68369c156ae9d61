package runtime

import (
	"sync"

	"chathub/contract"
	"chathub/domain"
)

type Set map[string]struct{}

// Registry tracks which participants sit in which room and how to reach
// them. Sinks are resolved in two steps so a participant present in
// several rooms keeps a single connection entry.
type Registry struct {
	mu          sync.RWMutex
	Sessions    map[string]contract.EventSink
	RoomMembers map[domain.RoomID]Set
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:    make(map[string]contract.EventSink),
		RoomMembers: make(map[domain.RoomID]Set),
	}
}

// GetSinksForRoom resolves the active sinks of every member of a room.
// Returns nil for an unknown or empty room.
func (r *Registry) GetSinksForRoom(roomID domain.RoomID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.RoomMembers[roomID]
	if !ok {
		return nil
	}
	var sinks []contract.EventSink
	for participantID := range members {
		if sink, exists := r.Sessions[participantID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// Subscribe registers a participant's sink and adds them to a room,
// initializing the membership set on first use.
func (r *Registry) Subscribe(participantID string, roomID domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[participantID] = sink
	if _, ok := r.RoomMembers[roomID]; !ok {
		r.RoomMembers[roomID] = make(Set)
	}
	r.RoomMembers[roomID][participantID] = struct{}{}
}

// Unsubscribe drops the participant's session and room membership,
// removing empty membership sets so the map does not grow forever.
func (r *Registry) Unsubscribe(participantID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Sessions, participantID)
	if members, ok := r.RoomMembers[roomID]; ok {
		delete(members, participantID)
		if len(members) == 0 {
			delete(r.RoomMembers, roomID)
		}
	}
}

// MemberCount reports how many participants a room currently has.
func (r *Registry) MemberCount(roomID domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.RoomMembers[roomID])
}
