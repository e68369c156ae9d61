package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeriveRoomID(t *testing.T) {
	req := require.New(t)

	req.Equal(RoomID("dev-chat"), DeriveRoomID("Dev Chat"))
	req.Equal(RoomID("general"), DeriveRoomID("General"))
	req.Equal(RoomID("tech-talk"), DeriveRoomID("  Tech Talk  "))
	// Whitespace runs collapse into a single separator.
	req.Equal(RoomID("dev-chat"), DeriveRoomID("Dev   Chat"))
}

func TestRoomList_CreateAndList(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomList()
	at := time.Now().UTC()

	general := rooms.Create("General", at)
	random := rooms.Create("Random", at)

	req.Equal(RoomID("general"), general)
	req.True(rooms.Exists(general))
	req.False(rooms.Exists("nope"))

	listed := rooms.List()
	req.Len(listed, 2)
	req.Equal(general, listed[0].ID)
	req.Equal(random, listed[1].ID)
	req.Equal(1, listed[0].MemberCount)
}

func TestRoomList_CollidingSlugsShadow(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomList()
	at := time.Now().UTC()

	first := rooms.Create("Dev Chat", at)
	second := rooms.Create("Dev  Chat", at.Add(time.Minute))
	req.Equal(first, second)

	// The newest entry wins the slug; the list stays deduplicated.
	room, ok := rooms.Get(first)
	req.True(ok)
	req.Equal("Dev  Chat", room.Name)
	req.Len(rooms.List(), 1)
}

func TestRoomList_SetMemberCount(t *testing.T) {
	req := require.New(t)
	rooms := NewRoomList()

	id := rooms.Create("General", time.Now().UTC())
	rooms.SetMemberCount(id, 12)

	room, ok := rooms.Get(id)
	req.True(ok)
	req.Equal(12, room.MemberCount)
}
