package repositories

import (
	"time"

	"chathub/domain"
)

// diskMessage is the stored representation of a message. The payload
// union is flattened into optional sub-records keyed by Kind, which
// keeps the envelope self-describing without custom marshalers on the
// domain types.
type diskMessage struct {
	ID      int64           `json:"id"`
	Room    string          `json:"room"`
	Author  string          `json:"author"`
	Content string          `json:"content,omitempty"`
	Lang    string          `json:"lang,omitempty"`
	At      time.Time       `json:"at"`
	Status  int             `json:"status"`
	Kind    string          `json:"kind"`
	Reply   *diskReply      `json:"reply,omitempty"`
	File    *diskAttachment `json:"file,omitempty"`
	Voice   *diskVoice      `json:"voice,omitempty"`
	Sticker *diskSticker    `json:"sticker,omitempty"`
	Poll    *diskPoll       `json:"poll,omitempty"`
	Call    *diskCall       `json:"call,omitempty"`
}

type diskReply struct {
	ID      int64  `json:"id"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

type diskAttachment struct {
	Ref       string `json:"ref"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	HumanSize string `json:"human_size"`
	MimeType  string `json:"mime_type"`
	Image     bool   `json:"image"`
}

type diskVoice struct {
	Ref        string `json:"ref"`
	DurationMs int64  `json:"duration_ms"`
}

type diskSticker struct {
	Glyph string `json:"glyph"`
}

type diskPoll struct {
	Question      string         `json:"question"`
	Options       []string       `json:"options"`
	AllowMultiple bool           `json:"allow_multiple"`
	Votes         map[string]int `json:"votes"`
	UserVotes     []string       `json:"user_votes"`
}

type diskCall struct {
	Medium string    `json:"medium"`
	Date   time.Time `json:"date"`
	Time   string    `json:"time"`
	Title  string    `json:"title"`
}

func toDiskMessage(m domain.Message) diskMessage {
	dm := diskMessage{
		ID:      int64(m.ID),
		Room:    string(m.Room),
		Author:  m.Author,
		Content: m.Content,
		Lang:    m.Lang,
		At:      m.At,
		Status:  int(m.Status),
		Kind:    string(m.Kind()),
	}
	if m.ReplyTo != nil {
		dm.Reply = &diskReply{
			ID:      int64(m.ReplyTo.ID),
			Author:  m.ReplyTo.Author,
			Content: m.ReplyTo.Content,
		}
	}
	switch p := m.Payload.(type) {
	case domain.Attachment:
		dm.File = &diskAttachment{
			Ref:       p.Ref,
			Name:      p.Name,
			Size:      p.Size,
			HumanSize: p.HumanSize,
			MimeType:  p.MimeType,
			Image:     p.Image,
		}
	case domain.VoiceNote:
		dm.Voice = &diskVoice{Ref: p.Ref, DurationMs: p.Duration.Milliseconds()}
	case domain.Sticker:
		dm.Sticker = &diskSticker{Glyph: p.Glyph}
	case *domain.Poll:
		dm.Poll = &diskPoll{
			Question:      p.Question,
			Options:       p.Options,
			AllowMultiple: p.AllowMultiple,
			Votes:         p.Votes,
			UserVotes:     p.UserVotes,
		}
	case domain.CallSchedule:
		dm.Call = &diskCall{
			Medium: string(p.Medium),
			Date:   p.Date,
			Time:   p.Time,
			Title:  p.Title,
		}
	}
	return dm
}

func fromDiskMessage(dm diskMessage) domain.Message {
	m := domain.Message{
		ID:      domain.MessageID(dm.ID),
		Room:    domain.RoomID(dm.Room),
		Author:  dm.Author,
		Content: dm.Content,
		Lang:    dm.Lang,
		At:      dm.At,
		Status:  domain.Status(dm.Status),
	}
	if dm.Reply != nil {
		m.ReplyTo = &domain.ReplySnapshot{
			ID:      domain.MessageID(dm.Reply.ID),
			Author:  dm.Reply.Author,
			Content: dm.Reply.Content,
		}
	}
	switch {
	case dm.File != nil:
		m.Payload = domain.Attachment{
			Ref:       dm.File.Ref,
			Name:      dm.File.Name,
			Size:      dm.File.Size,
			HumanSize: dm.File.HumanSize,
			MimeType:  dm.File.MimeType,
			Image:     dm.File.Image,
		}
	case dm.Voice != nil:
		m.Payload = domain.VoiceNote{
			Ref:      dm.Voice.Ref,
			Duration: time.Duration(dm.Voice.DurationMs) * time.Millisecond,
		}
	case dm.Sticker != nil:
		m.Payload = domain.Sticker{Glyph: dm.Sticker.Glyph}
	case dm.Poll != nil:
		m.Payload = &domain.Poll{
			Question:      dm.Poll.Question,
			Options:       dm.Poll.Options,
			AllowMultiple: dm.Poll.AllowMultiple,
			Votes:         dm.Poll.Votes,
			UserVotes:     dm.Poll.UserVotes,
		}
	case dm.Call != nil:
		m.Payload = domain.CallSchedule{
			Medium: domain.CallMedium(dm.Call.Medium),
			Date:   dm.Call.Date,
			Time:   dm.Call.Time,
			Title:  dm.Call.Title,
		}
	}
	return m
}
