package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chathub/domain"
	"chathub/domain/event"
	"chathub/errors"
	"chathub/moderation"
	"chathub/observability"
	"chathub/projection"
	"chathub/repositories"
	"chathub/runtime"
	"chathub/search"
)

type chatFixture struct {
	svc        *ChatService
	scheduler  *runtime.StatusScheduler
	timeline   *projection.Timeline
	index      *search.Index
	monitoring *observability.MonitoringManager
	events     chan event.DomainEvent
	general    domain.RoomID
	random     domain.RoomID
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	log := slog.Default()
	repo := repositories.NewMessageRepository(db, log)
	events := make(chan event.DomainEvent, 64)
	monitoring := observability.NewMonitoringManager()
	timeline := projection.NewTimeline()
	index := search.NewIndex(writer, log)

	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	scheduler := runtime.NewStatusScheduler(repo, runtime.DefaultDelays(), events, log).
		WithClock(func() time.Time { return epoch }).
		WithMonitoring(monitoring)

	moderator, err := moderation.NewModerator([]string{"badword"}, '*')
	require.NoError(t, err)

	rooms := domain.NewRoomList()
	svc := NewChatService(log, rooms, repo, scheduler, timeline, events).
		WithModerator(&moderator).
		WithMonitoring(monitoring).
		WithIndex(index)

	f := &chatFixture{
		svc:        svc,
		scheduler:  scheduler,
		timeline:   timeline,
		index:      index,
		monitoring: monitoring,
		events:     events,
	}
	f.general = svc.CreateRoom("General")
	f.random = svc.CreateRoom("Random")
	f.drain(t)
	return f
}

// drain feeds queued events to the projections the fanout worker would
// serve in live mode.
func (f *chatFixture) drain(t *testing.T) {
	t.Helper()
	sink := search.NewIndexSink(f.index, slog.Default())
	for {
		select {
		case evt := <-f.events:
			require.NoError(t, f.timeline.Consume(context.Background(), evt))
			require.NoError(t, sink.Consume(context.Background(), evt))
		default:
			return
		}
	}
}

func TestChatService_CreateAndListRooms(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	req.Equal(domain.RoomID("general"), f.general)
	rooms := f.svc.ListRooms()
	req.Len(rooms, 2)
	req.Equal("General", rooms[0].Name)
	req.Equal(1, rooms[0].MemberCount)
	req.Equal(uint64(2), f.monitoring.GetLatest().RoomsCreated)

	f.svc.SetMemberCount(f.general, 12)
	rooms = f.svc.ListRooms()
	req.Equal(12, rooms[0].MemberCount)
}

type noopSink struct{}

func (noopSink) Consume(context.Context, event.DomainEvent) error { return nil }

func TestChatService_ListRoomsCountsLiveMembers(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	registry := runtime.NewRegistry()
	f.svc.WithRegistry(registry)

	f.svc.SetMemberCount(f.general, 12)
	registry.Subscribe("participant-1", f.general, noopSink{})
	registry.Subscribe("participant-2", f.general, noopSink{})

	rooms := f.svc.ListRooms()
	req.Equal(14, rooms[0].MemberCount)
	req.Equal(1, rooms[1].MemberCount)

	registry.Unsubscribe("participant-2", f.general)
	rooms = f.svc.ListRooms()
	req.Equal(13, rooms[0].MemberCount)
}

func TestChatService_SelectRoom(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	req.NoError(f.svc.SelectRoom(f.general))
	req.Equal(f.general, f.svc.ActiveRoom())
	req.ErrorIs(f.svc.SelectRoom("nope"), errors.ErrUnknownRoom)
}

func TestChatService_SendText(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	t.Run("should store and schedule a message", func(t *testing.T) {
		req := require.New(t)
		stored, err := f.svc.SendText(ctx, "Alice", f.general, "hello there")
		req.NoError(err)
		req.Equal(domain.StatusSending, stored.Status)
		req.Equal(domain.KindText, stored.Kind())
		req.NotZero(stored.ID)
		req.Equal(2, f.scheduler.PendingCount())
		req.Equal(uint64(1), f.monitoring.GetLatest().MessagesPosted)
	})

	t.Run("should reject blank content", func(t *testing.T) {
		req := require.New(t)
		_, err := f.svc.SendText(ctx, "Alice", f.general, "   ")
		req.ErrorIs(err, errors.ErrEmptyPayload)
	})

	t.Run("should reject an unknown room", func(t *testing.T) {
		req := require.New(t)
		_, err := f.svc.SendText(ctx, "Alice", "nope", "hello")
		req.ErrorIs(err, errors.ErrUnknownRoom)
	})

	t.Run("should censor blacklisted words", func(t *testing.T) {
		req := require.New(t)
		stored, err := f.svc.SendText(ctx, "Alice", f.general, "you badword you")
		req.NoError(err)
		req.Equal("you ******* you", stored.Content)
	})
}

func TestChatService_SendAttachment(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	t.Run("should classify a PNG as an image", func(t *testing.T) {
		req := require.New(t)
		png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
		stored, err := f.svc.SendAttachment(ctx, "Alice", f.general, "cat.png", png, "look")
		req.NoError(err)

		attachment, ok := stored.Payload.(domain.Attachment)
		req.True(ok)
		req.True(attachment.Image)
		req.Equal(domain.KindImage, stored.Kind())
		req.Equal("cat.png", attachment.Name)
		req.NotEmpty(attachment.Ref)
		req.Equal("12 B", attachment.HumanSize)
	})

	t.Run("should classify unknown bytes as a file", func(t *testing.T) {
		req := require.New(t)
		stored, err := f.svc.SendAttachment(ctx, "Alice", f.general, "report.bin", []byte{0x00, 0x01, 0x02}, "")
		req.NoError(err)
		req.Equal(domain.KindFile, stored.Kind())
	})

	t.Run("should cap the upload size", func(t *testing.T) {
		req := require.New(t)
		oversized := make([]byte, MaxAttachmentSize+1)
		_, err := f.svc.SendAttachment(ctx, "Alice", f.general, "huge.bin", oversized, "")
		req.ErrorIs(err, errors.ErrAttachmentTooLarge)
	})
}

func TestChatService_ReplyConsumedOnce(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	target, err := f.svc.SendText(ctx, "Alice", f.general, "original")
	req.NoError(err)

	f.svc.PrepareReply(target)
	req.NotNil(f.svc.PendingReply())

	first, err := f.svc.SendText(ctx, "Bob", f.general, "the answer")
	req.NoError(err)
	req.NotNil(first.ReplyTo)
	req.Equal(target.ID, first.ReplyTo.ID)
	req.Equal("Alice", first.ReplyTo.Author)
	req.Nil(f.svc.PendingReply())

	second, err := f.svc.SendText(ctx, "Bob", f.general, "unrelated")
	req.NoError(err)
	req.Nil(second.ReplyTo)
}

func TestChatService_ReplyConsumedEvenOnFailedSend(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	target, err := f.svc.SendText(ctx, "Alice", f.general, "original")
	req.NoError(err)
	f.svc.PrepareReply(target)

	_, err = f.svc.SendText(ctx, "Bob", "nope", "lost")
	req.ErrorIs(err, errors.ErrUnknownRoom)
	req.Nil(f.svc.PendingReply())
}

func TestChatService_Vote(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	pollMsg, err := f.svc.SendPoll(ctx, "Alice", f.general, "Tabs or spaces?", []string{"Tabs", "Spaces"}, false)
	req.NoError(err)
	textMsg, err := f.svc.SendText(ctx, "Alice", f.general, "not a poll")
	req.NoError(err)

	poll, err := f.svc.Vote(pollMsg.ID, 0, "bob")
	req.NoError(err)
	req.Equal(1, poll.Votes["Tabs"])
	req.Equal(100, poll.Percentage("Tabs"))
	req.Equal(uint64(1), f.monitoring.GetLatest().VotesRecorded)

	t.Run("should ignore a repeat vote", func(t *testing.T) {
		req := require.New(t)
		poll, err := f.svc.Vote(pollMsg.ID, 0, "bob")
		req.NoError(err)
		req.Equal(1, poll.TotalVotes())
		req.Equal(uint64(1), f.monitoring.GetLatest().VotesRecorded)
	})

	t.Run("should reject an out of range option", func(t *testing.T) {
		req := require.New(t)
		_, err := f.svc.Vote(pollMsg.ID, 9, "bob")
		req.ErrorIs(err, errors.ErrUnknownOption)
	})

	t.Run("should reject voting on a non-poll message", func(t *testing.T) {
		req := require.New(t)
		_, err := f.svc.Vote(textMsg.ID, 0, "bob")
		req.ErrorIs(err, errors.ErrNotAPoll)
	})

	t.Run("should reject an unknown message", func(t *testing.T) {
		req := require.New(t)
		_, err := f.svc.Vote(9999, 0, "bob")
		req.ErrorIs(err, errors.ErrMessageNotFound)
	})
}

func TestChatService_VoteSurvivesStatusTransition(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	pollMsg, err := f.svc.SendPoll(ctx, "Alice", f.general, "Lunch?", []string{"Pizza", "Sushi"}, false)
	req.NoError(err)

	f.scheduler.Advance(time.Second) // poll message reaches sent
	poll, err := f.svc.Vote(pollMsg.ID, 1, "bob")
	req.NoError(err)
	req.Equal(1, poll.Votes["Sushi"])

	messages, err := f.svc.ListForRoom(f.general, "")
	req.NoError(err)
	req.Equal(domain.StatusSent, messages[0].Status)
	req.Equal(1, messages[0].Poll().TotalVotes())
}

func TestChatService_TimelineUnread(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	req.NoError(f.svc.SelectRoom(f.general))
	_, err := f.svc.SendText(ctx, "Alice", f.random, "psst")
	req.NoError(err)
	_, err = f.svc.SendText(ctx, "Alice", f.general, "hello")
	req.NoError(err)
	f.drain(t)

	rooms := f.svc.ListRooms()
	req.Equal(0, rooms[0].Unread) // general is active
	req.Equal(1, rooms[1].Unread)
	req.Equal("psst", rooms[1].LastSnippet)
	req.Equal("Alice", rooms[1].LastAuthor)

	// Entering the room clears its counter
	req.NoError(f.svc.SelectRoom(f.random))
	rooms = f.svc.ListRooms()
	req.Equal(0, rooms[1].Unread)
}

func TestChatService_ListForRoomFilter(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	for _, content := range []string{"deploy is done", "lunch?", "Deploy rollback"} {
		_, err := f.svc.SendText(ctx, "Alice", f.general, content)
		req.NoError(err)
	}

	messages, err := f.svc.ListForRoom(f.general, "deploy")
	req.NoError(err)
	req.Len(messages, 2)
}

func TestChatService_Find(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendText(ctx, "Alice", f.general, "shipping the release")
	req.NoError(err)
	_, err = f.svc.SendText(ctx, "Bob", f.random, "release party")
	req.NoError(err)
	f.drain(t)

	hits, err := f.svc.Find(ctx, "/find release")
	req.NoError(err)
	req.Len(hits, 2)

	hits, err = f.svc.Find(ctx, "/find release --room random")
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("Bob", hits[0].Author)

	// The configured cap applies when the query carries no --limit.
	f.svc.WithSearchLimit(1)
	hits, err = f.svc.Find(ctx, "/find release")
	req.NoError(err)
	req.Len(hits, 1)
}

func TestChatService_ScheduleCallValidation(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	stored, err := f.svc.ScheduleCall(ctx, "Alice", f.general, domain.CallVideo, date, "14:30", "Sprint review")
	req.NoError(err)
	req.Equal(domain.KindCallSchedule, stored.Kind())

	_, err = f.svc.ScheduleCall(ctx, "Alice", f.general, domain.CallVideo, date, "14:30", "  ")
	req.ErrorIs(err, errors.ErrValidation)
	_, err = f.svc.ScheduleCall(ctx, "Alice", f.general, domain.CallVoice, time.Time{}, "14:30", "Standup")
	req.ErrorIs(err, errors.ErrValidation)
}

// newSeededAuthService backs the auth tests with a real badger-backed
// user store holding the demo account.
func newSeededAuthService(t *testing.T) *AuthService {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := NewAuthService(repositories.NewUserRepository(db), 24*time.Hour)
	require.NoError(t, svc.SeedAccount("demo", "password123"))
	return svc
}
