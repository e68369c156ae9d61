package projection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chathub/domain"
	"chathub/domain/event"
)

func TestTimeline_Consume_MessagePosted(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()

	at := time.Now().UTC()
	err := timeline.Consume(ctx, event.MessagePosted{Message: domain.Message{
		Author: "Alice", Room: "general", Content: "Hello Bob", At: at,
	}})
	req.NoError(err)
	err = timeline.Consume(ctx, event.MessagePosted{Message: domain.Message{
		Author: "Clara", Room: "general", Content: "Hi Bob", At: at.Add(time.Second),
	}})
	req.NoError(err)

	summary, ok := timeline.Summary("general")
	req.True(ok)
	req.Equal("Clara", summary.Author)
	req.Equal("Hi Bob", summary.Snippet)
	req.Equal(at.Add(time.Second), summary.At)
	req.Equal(2, summary.Unread)
}

func TestTimeline_ActiveRoomNeverAccumulatesUnread(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()

	timeline.SetActive("general")
	req.NoError(timeline.Consume(ctx, event.MessagePosted{Message: domain.Message{
		Author: "Alice", Room: "general", Content: "seen immediately",
	}}))
	req.NoError(timeline.Consume(ctx, event.MessagePosted{Message: domain.Message{
		Author: "Bob", Room: "random", Content: "missed",
	}}))

	active, ok := timeline.Summary("general")
	req.True(ok)
	req.Equal(0, active.Unread)

	other, ok := timeline.Summary("random")
	req.True(ok)
	req.Equal(1, other.Unread)

	// Switching in clears the backlog
	timeline.SetActive("random")
	other, _ = timeline.Summary("random")
	req.Equal(0, other.Unread)
}

func TestTimeline_RoomCreatedRegistersEmptySummary(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()

	err := timeline.Consume(context.Background(), event.RoomCreated{
		Room: domain.Room{ID: "tech-talk", Name: "Tech Talk"},
	})
	req.NoError(err)

	summary, ok := timeline.Summary("tech-talk")
	req.True(ok)
	req.Empty(summary.Snippet)
	req.Equal(0, summary.Unread)
}

func TestTimeline_SnippetPerKind(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline()
	ctx := context.Background()

	poll, err := domain.NewPoll("Lunch?", []string{"Pizza", "Sushi"}, false)
	req.NoError(err)

	tests := []struct {
		name    string
		message domain.Message
		snippet string
	}{
		{"text", domain.Message{Room: "r", Content: "plain"}, "plain"},
		{"image", domain.Message{Room: "r", Payload: domain.Attachment{Name: "cat.png", Image: true}}, "[image] cat.png"},
		{"file", domain.Message{Room: "r", Payload: domain.Attachment{Name: "report.pdf"}}, "[file] report.pdf"},
		{"voice", domain.Message{Room: "r", Payload: domain.VoiceNote{Duration: 3 * time.Second}}, "[voice] 3s"},
		{"sticker", domain.Message{Room: "r", Payload: domain.Sticker{Glyph: "🔥"}}, "🔥"},
		{"poll", domain.Message{Room: "r", Payload: poll}, "[poll] Lunch?"},
		{"call", domain.Message{Room: "r", Payload: domain.CallSchedule{Title: "Standup"}}, "[call] Standup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			req.NoError(timeline.Consume(ctx, event.MessagePosted{Message: tt.message}))
			summary, ok := timeline.Summary("r")
			req.True(ok)
			req.Equal(tt.snippet, summary.Snippet)
		})
	}
}
