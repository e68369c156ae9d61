package event

import (
	"time"

	"chathub/domain"
)

// DomainEvent is anything the engine fans out to projections and sinks.
type DomainEvent interface {
	RoomID() domain.RoomID
}

// MessagePosted fires after a message is appended to the store.
type MessagePosted struct {
	Message domain.Message
}

func (e MessagePosted) RoomID() domain.RoomID { return e.Message.Room }

// StatusAdvanced fires when the delivery scheduler moves a message
// forward.
type StatusAdvanced struct {
	ID     domain.MessageID
	Room   domain.RoomID
	Status domain.Status
	At     time.Time
}

func (e StatusAdvanced) RoomID() domain.RoomID { return e.Room }

// PollVoted fires when a vote lands on an embedded poll.
type PollVoted struct {
	ID     domain.MessageID
	Room   domain.RoomID
	Voter  string
	Option string
}

func (e PollVoted) RoomID() domain.RoomID { return e.Room }

// RoomCreated fires when a new room is registered.
type RoomCreated struct {
	Room domain.Room
}

func (e RoomCreated) RoomID() domain.RoomID { return e.Room.ID }
