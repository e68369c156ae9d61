// Package domain contains core concepts of the chat system.
// This file defines Message records and the kind-discriminated payloads.
// Messages are append-only; only the delivery status and an embedded
// poll payload may change after creation.
package domain

import (
	"time"
)

// Kind discriminates which payload shape a message carries.
type Kind string

const (
	KindText         Kind = "text"
	KindImage        Kind = "image"
	KindFile         Kind = "file"
	KindVoice        Kind = "voice"
	KindSticker      Kind = "sticker"
	KindPoll         Kind = "poll"
	KindCallSchedule Kind = "call-schedule"
)

// Status is the simulated delivery acknowledgment state.
// Values are ordered so a transition is legal iff the target is greater.
type Status int

const (
	StatusSending Status = iota
	StatusSent
	StatusDelivered
	StatusRead
)

func (s Status) String() string {
	switch s {
	case StatusSending:
		return "sending"
	case StatusSent:
		return "sent"
	case StatusDelivered:
		return "delivered"
	case StatusRead:
		return "read"
	default:
		return "unknown"
	}
}

// Payload is the kind-specific part of a message.
// Each variant carries only the fields relevant to its kind;
// text messages have a nil payload and live in Message.Content.
type Payload interface {
	Kind() Kind
}

// Attachment backs both image and file messages. Image is decided by
// sniffing the bytes, not by the declared file name.
type Attachment struct {
	Ref       string // opaque blob reference, not a filesystem path
	Name      string
	Size      int64
	HumanSize string
	MimeType  string
	Image     bool
}

func (a Attachment) Kind() Kind {
	if a.Image {
		return KindImage
	}
	return KindFile
}

// VoiceNote references captured audio and its measured duration.
type VoiceNote struct {
	Ref      string
	Duration time.Duration
}

func (v VoiceNote) Kind() Kind { return KindVoice }

// Sticker is a single selected glyph; the glyph doubles as the content.
type Sticker struct {
	Glyph string
}

func (s Sticker) Kind() Kind { return KindSticker }

// CallMedium selects voice or video for a scheduled call.
type CallMedium string

const (
	CallVoice CallMedium = "voice"
	CallVideo CallMedium = "video"
)

// CallSchedule carries the call-schedule form values.
type CallSchedule struct {
	Medium CallMedium
	Date   time.Time
	Time   string
	Title  string
}

func (c CallSchedule) Kind() Kind { return KindCallSchedule }

// MessageID is unique within the whole store and strictly increasing
// in insertion order.
type MessageID int64

// Message is one record of the room-partitioned log.
type Message struct {
	ID      MessageID
	Author  string
	Room    RoomID
	Content string
	Lang    string // ISO 639-1 hint for text messages, best effort
	At      time.Time
	Status  Status
	ReplyTo *ReplySnapshot
	Payload Payload // nil for plain text
}

// Kind derives the discriminator from the payload variant.
func (m Message) Kind() Kind {
	if m.Payload == nil {
		return KindText
	}
	return m.Payload.Kind()
}

// Poll returns the embedded poll payload, or nil for other kinds.
func (m *Message) Poll() *Poll {
	p, ok := m.Payload.(*Poll)
	if !ok {
		return nil
	}
	return p
}

// AdvanceStatus moves the delivery status forward. Regressions and
// repeats are ignored, which makes scheduled transitions idempotent.
func (m *Message) AdvanceStatus(target Status) bool {
	if target <= m.Status {
		return false
	}
	m.Status = target
	return true
}
