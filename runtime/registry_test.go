package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chathub/domain"
	"chathub/domain/event"
)

type Sink struct {
}

func (s Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	return nil
}

func TestRegistry_Subscribe_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	participantID := uuid.NewString()
	roomID := domain.RoomID("general")
	sink := Sink{}

	// Given no user is connected
	// And no room exists
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)

	// When a participant subscribes a room
	registry.Subscribe(participantID, roomID, sink)

	// Then
	req.Len(registry.Sessions, 1)
	req.Equal(sink, registry.Sessions[participantID])

	req.Len(registry.RoomMembers, 1)
	req.Contains(registry.RoomMembers[roomID], participantID)

	req.Len(registry.GetSinksForRoom(roomID), 1)
	req.Contains(registry.GetSinksForRoom(roomID), sink)
	req.Equal(1, registry.MemberCount(roomID))
}

func TestRegistry_Subscribe_One_Room_Multiple_Participants(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	participantID1 := uuid.NewString()
	participantID2 := uuid.NewString()
	roomID := domain.RoomID("general")
	sink1 := Sink{}
	sink2 := Sink{}

	// When participants subscribe a room
	registry.Subscribe(participantID1, roomID, sink1)
	registry.Subscribe(participantID2, roomID, sink2)

	// Then
	req.Len(registry.Sessions, 2)
	req.Len(registry.RoomMembers[roomID], 2)

	req.Len(registry.GetSinksForRoom(roomID), 2)
	req.Contains(registry.GetSinksForRoom(roomID), sink1)
	req.Equal(2, registry.MemberCount(roomID))
}

func TestRegistry_Unsubscribe_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	participantID := uuid.NewString()
	roomID := domain.RoomID("general")
	sink := Sink{}

	// Given a participant subscribes a room
	registry.Subscribe(participantID, roomID, sink)

	// When a participant unsubscribes a room
	registry.Unsubscribe(participantID, roomID)

	// Then no participant left
	// And the room doesn't exist anymore
	req.Empty(registry.Sessions)
	req.Empty(registry.RoomMembers)
	req.Empty(registry.GetSinksForRoom(roomID))
	req.Equal(0, registry.MemberCount(roomID))
}

func TestRegistry_Participant_In_Multiple_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	participantID := uuid.NewString()
	sink := Sink{}

	registry.Subscribe(participantID, "general", sink)
	registry.Subscribe(participantID, "random", sink)

	// A single connection entry serves both rooms
	req.Len(registry.Sessions, 1)
	req.Len(registry.GetSinksForRoom("general"), 1)
	req.Len(registry.GetSinksForRoom("random"), 1)

	registry.Unsubscribe(participantID, "general")
	req.Empty(registry.GetSinksForRoom("general"))
	// Leaving one room tears down the session; the other room's
	// membership no longer resolves a sink.
	req.Empty(registry.GetSinksForRoom("random"))
}
