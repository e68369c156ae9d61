package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"chathub/contract"
	"chathub/domain"
	"chathub/domain/event"
	"chathub/errors"
	"chathub/moderation"
	"chathub/observability"
	"chathub/projection"
	"chathub/repositories"
	"chathub/runtime"
	"chathub/search"

	"github.com/abadojack/whatlanggo"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MaxAttachmentSize caps uploads at 10 MB, as the original client did.
const MaxAttachmentSize = 10 * 1024 * 1024

// RoomView joins the registry entry with its timeline digest for the
// sidebar.
type RoomView struct {
	domain.Room
	LastAuthor  string
	LastSnippet string
	LastAt      time.Time
	Unread      int
}

// ChatService is the in-process surface the presentation layer calls.
// It owns the compose-time state (active room, pending reply) and
// funnels every send through a single insertion path.
type ChatService struct {
	mu         sync.Mutex
	log        *slog.Logger
	rooms      *domain.RoomList
	messages   repositories.IMessageRepository
	scheduler  *runtime.StatusScheduler
	moderator  *moderation.Moderator
	monitoring *observability.MonitoringManager
	timeline   *projection.Timeline
	index      *search.Index
	registry   contract.IRegistry
	events     chan<- event.DomainEvent

	searchLimit int

	active       domain.RoomID
	pendingReply *domain.ReplySnapshot
}

func NewChatService(log *slog.Logger, rooms *domain.RoomList,
	messages repositories.IMessageRepository, scheduler *runtime.StatusScheduler,
	timeline *projection.Timeline, events chan<- event.DomainEvent) *ChatService {
	return &ChatService{
		log:       log,
		rooms:     rooms,
		messages:  messages,
		scheduler: scheduler,
		timeline:  timeline,
		events:    events,
	}
}

// WithModerator enables censored-word masking on outgoing text.
func (s *ChatService) WithModerator(m *moderation.Moderator) *ChatService {
	s.moderator = m
	return s
}

// WithMonitoring enables telemetry counters.
func (s *ChatService) WithMonitoring(m *observability.MonitoringManager) *ChatService {
	s.monitoring = m
	return s
}

// WithIndex enables the /find full-text search.
func (s *ChatService) WithIndex(x *search.Index) *ChatService {
	s.index = x
	return s
}

// WithRegistry counts live local subscribers into room member figures.
func (s *ChatService) WithRegistry(r contract.IRegistry) *ChatService {
	s.registry = r
	return s
}

// WithSearchLimit sets the result cap used when a /find query carries
// no --limit flag.
func (s *ChatService) WithSearchLimit(n int) *ChatService {
	s.searchLimit = n
	return s
}

// CreateRoom registers a room under its derived slug. Colliding slugs
// are not rejected; the newest room shadows the older entry.
func (s *ChatService) CreateRoom(name string) domain.RoomID {
	id := s.rooms.Create(name, time.Now().UTC())
	if s.monitoring != nil {
		s.monitoring.RoomCreated()
	}
	if room, ok := s.rooms.Get(id); ok {
		s.publish(event.RoomCreated{Room: room})
	}
	return id
}

// ListRooms returns rooms in insertion order, enriched with the last
// message digest and the unread counter. The member figure is the
// seeded baseline plus the live subscribers the registry tracks.
func (s *ChatService) ListRooms() []RoomView {
	return lo.Map(s.rooms.List(), func(room domain.Room, _ int) RoomView {
		view := RoomView{Room: room}
		if s.registry != nil {
			view.MemberCount += s.registry.MemberCount(room.ID)
		}
		if s.timeline != nil {
			if sum, ok := s.timeline.Summary(room.ID); ok {
				view.LastAuthor = sum.Author
				view.LastSnippet = sum.Snippet
				view.LastAt = sum.At
				view.Unread = sum.Unread
			}
		}
		return view
	})
}

// SelectRoom makes a room the target of subsequent sends and filters
// and clears its unread count.
func (s *ChatService) SelectRoom(id domain.RoomID) error {
	if !s.rooms.Exists(id) {
		return errors.ErrUnknownRoom
	}
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
	if s.timeline != nil {
		s.timeline.SetActive(id)
	}
	return nil
}

// SetMemberCount overrides a room's member counter, used when seeding
// rooms that pre-date this session.
func (s *ChatService) SetMemberCount(id domain.RoomID, count int) {
	s.rooms.SetMemberCount(id, count)
}

// ActiveRoom returns the currently selected room.
func (s *ChatService) ActiveRoom() domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SendText appends a plain text message. Blank content is the one
// rejected empty payload; other kinds may legitimately carry none.
// Text passes through the moderator and gets a best-effort language
// hint before insertion.
func (s *ChatService) SendText(ctx context.Context, author string, room domain.RoomID, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, errors.ErrEmptyPayload
	}
	return s.send(ctx, author, room, content, nil)
}

// SendAttachment stores an uploaded file, sniffing the bytes to decide
// between the image and file kinds. The caption may be empty.
func (s *ChatService) SendAttachment(ctx context.Context, author string, room domain.RoomID, name string, data []byte, caption string) (domain.Message, error) {
	if int64(len(data)) > MaxAttachmentSize {
		return domain.Message{}, errors.ErrAttachmentTooLarge
	}
	mime := mimetype.Detect(data)
	payload := domain.Attachment{
		Ref:       uuid.NewString(),
		Name:      name,
		Size:      int64(len(data)),
		HumanSize: humanSize(int64(len(data))),
		MimeType:  mime.String(),
		Image:     strings.HasPrefix(mime.String(), "image/"),
	}
	return s.send(ctx, author, room, strings.TrimSpace(caption), payload)
}

// SendVoice records a captured voice note with its measured duration.
func (s *ChatService) SendVoice(ctx context.Context, author string, room domain.RoomID, duration time.Duration) (domain.Message, error) {
	payload := domain.VoiceNote{Ref: uuid.NewString(), Duration: duration}
	return s.send(ctx, author, room, "", payload)
}

// SendSticker posts a single selected glyph.
func (s *ChatService) SendSticker(ctx context.Context, author string, room domain.RoomID, glyph string) (domain.Message, error) {
	return s.send(ctx, author, room, "", domain.Sticker{Glyph: glyph})
}

// SendPoll validates the poll form and embeds the payload in a new
// message.
func (s *ChatService) SendPoll(ctx context.Context, author string, room domain.RoomID, question string, options []string, allowMultiple bool) (domain.Message, error) {
	poll, err := domain.NewPoll(question, options, allowMultiple)
	if err != nil {
		return domain.Message{}, err
	}
	return s.send(ctx, author, room, "", poll)
}

// ScheduleCall posts a call-schedule card.
func (s *ChatService) ScheduleCall(ctx context.Context, author string, room domain.RoomID, medium domain.CallMedium, date time.Time, at, title string) (domain.Message, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(at) == "" || date.IsZero() {
		return domain.Message{}, errors.ErrValidation
	}
	payload := domain.CallSchedule{Medium: medium, Date: date, Time: at, Title: title}
	return s.send(ctx, author, room, "", payload)
}

// send is the single insertion path: it consumes the pending reply
// (success or not), validates the room, censors text, stores the
// record, schedules the delivery progression, and fans the event out.
func (s *ChatService) send(_ context.Context, author string, room domain.RoomID, content string, payload domain.Payload) (domain.Message, error) {
	reply := s.consumeReply()

	if !s.rooms.Exists(room) {
		return domain.Message{}, errors.ErrUnknownRoom
	}

	lang := ""
	if payload == nil {
		if s.moderator != nil {
			censored, found := s.moderator.Censor(content)
			if len(found) > 0 {
				s.log.Debug(fmt.Sprintf("Censored %d word(s) from %s", len(found), author))
			}
			content = censored
		}
		info := whatlanggo.Detect(content)
		lang = info.Lang.Iso6391()
	}

	message := domain.Message{
		Author:  author,
		Room:    room,
		Content: content,
		Lang:    lang,
		At:      time.Now().UTC(),
		Status:  domain.StatusSending,
		ReplyTo: reply,
		Payload: payload,
	}

	stored, err := s.messages.Store(message)
	if err != nil {
		return domain.Message{}, err
	}

	if s.scheduler != nil {
		s.scheduler.Schedule(stored)
	}
	if s.monitoring != nil {
		s.monitoring.MessagePosted()
	}
	s.publish(event.MessagePosted{Message: stored})
	return stored, nil
}

// ListForRoom projects the room's partition, optionally narrowed by a
// case-insensitive substring match. Pure read; repeated calls see the
// same order.
func (s *ChatService) ListForRoom(room domain.RoomID, term string) ([]domain.Message, error) {
	return s.messages.ListForRoom(room, term)
}

// Vote lands one vote on an embedded poll via a read-modify-write
// patch, so it cannot clobber a concurrent status transition on the
// same message. Re-voting an already-picked option returns the
// unchanged tally without error.
func (s *ChatService) Vote(messageID domain.MessageID, optionIndex int, voter string) (*domain.Poll, error) {
	var counted bool
	var label string
	patched, err := s.messages.Patch(messageID, func(m *domain.Message) error {
		poll := m.Poll()
		if poll == nil {
			return errors.ErrNotAPoll
		}
		changed, err := poll.Vote(optionIndex)
		if err != nil {
			return err
		}
		counted = changed
		if changed {
			label = poll.Options[optionIndex]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	poll := patched.Poll()
	if counted {
		if s.monitoring != nil {
			s.monitoring.VoteRecorded()
		}
		s.publish(event.PollVoted{
			ID:     patched.ID,
			Room:   patched.Room,
			Voter:  voter,
			Option: label,
		})
	}
	return poll.Clone(), nil
}

// PrepareReply snapshots the target message as the pending reply,
// replacing any previous target.
func (s *ChatService) PrepareReply(m domain.Message) {
	snapshot := domain.SnapshotOf(m)
	s.mu.Lock()
	s.pendingReply = &snapshot
	s.mu.Unlock()
}

// ClearReply drops the pending reply target.
func (s *ChatService) ClearReply() {
	s.mu.Lock()
	s.pendingReply = nil
	s.mu.Unlock()
}

// PendingReply exposes the current target for the compose banner.
func (s *ChatService) PendingReply() *domain.ReplySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingReply
}

// Find runs the /find full-text query against the bluge index.
func (s *ChatService) Find(ctx context.Context, input string) ([]search.Hit, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(ctx, search.NewQuery(input, s.searchLimit))
}

func (s *ChatService) consumeReply() *domain.ReplySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	reply := s.pendingReply
	s.pendingReply = nil
	return reply
}

func (s *ChatService) publish(evt event.DomainEvent) {
	if s.events == nil {
		return
	}
	select {
	case s.events <- evt:
	default:
		s.log.Warn(fmt.Sprintf("Event channel full for Room %s, dropping event", evt.RoomID()))
	}
}

// humanSize renders a byte count the way the upload card displays it.
func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
