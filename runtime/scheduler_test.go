package runtime

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chathub/domain"
	"chathub/domain/event"
	"chathub/repositories"
)

func newSchedulerUnderTest(t *testing.T, events chan event.DomainEvent) (*StatusScheduler, *repositories.MessageRepository) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repositories.NewMessageRepository(db, slog.Default())
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	scheduler := NewStatusScheduler(repo, DefaultDelays(), events, slog.Default()).
		WithClock(func() time.Time { return epoch })
	return scheduler, repo
}

func TestStatusScheduler_ProgressionOrder(t *testing.T) {
	req := require.New(t)
	scheduler, repo := newSchedulerUnderTest(t, nil)

	stored, err := repo.Store(domain.Message{Author: "Alice", Room: "general", Content: "hello"})
	req.NoError(err)
	scheduler.Schedule(stored)
	req.Equal(2, scheduler.PendingCount())

	// Nothing fires before the first stage
	req.Equal(0, scheduler.Advance(500*time.Millisecond))

	req.Equal(1, scheduler.Advance(500*time.Millisecond))
	fetched, err := repo.Get(stored.ID)
	req.NoError(err)
	req.Equal(domain.StatusSent, fetched.Status)

	req.Equal(1, scheduler.Advance(time.Second))
	fetched, err = repo.Get(stored.ID)
	req.NoError(err)
	req.Equal(domain.StatusDelivered, fetched.Status)

	// Text messages never reach read
	req.Equal(0, scheduler.Advance(time.Hour))
	fetched, err = repo.Get(stored.ID)
	req.NoError(err)
	req.Equal(domain.StatusDelivered, fetched.Status)
	req.Equal(0, scheduler.PendingCount())
}

func TestStatusScheduler_VoiceReachesRead(t *testing.T) {
	req := require.New(t)
	scheduler, repo := newSchedulerUnderTest(t, nil)

	stored, err := repo.Store(domain.Message{
		Author:  "Alice",
		Room:    "general",
		Payload: domain.VoiceNote{Ref: "voice-1", Duration: 3 * time.Second},
	})
	req.NoError(err)
	scheduler.Schedule(stored)
	req.Equal(3, scheduler.PendingCount())

	scheduler.Advance(time.Hour)
	fetched, err := repo.Get(stored.ID)
	req.NoError(err)
	req.Equal(domain.StatusRead, fetched.Status)
}

func TestStatusScheduler_InterleavedSends(t *testing.T) {
	req := require.New(t)
	scheduler, repo := newSchedulerUnderTest(t, nil)

	first, err := repo.Store(domain.Message{Author: "Alice", Room: "general", Content: "first"})
	req.NoError(err)
	scheduler.Schedule(first)

	// A later send observes the advanced virtual time
	req.Equal(1, scheduler.Advance(time.Second)) // first -> sent
	second, err := repo.Store(domain.Message{Author: "Bob", Room: "general", Content: "second"})
	req.NoError(err)
	scheduler.Schedule(second)

	// first -> delivered and second -> sent fire together
	req.Equal(2, scheduler.Advance(time.Second))

	fetchedFirst, err := repo.Get(first.ID)
	req.NoError(err)
	req.Equal(domain.StatusDelivered, fetchedFirst.Status)
	fetchedSecond, err := repo.Get(second.ID)
	req.NoError(err)
	req.Equal(domain.StatusSent, fetchedSecond.Status)
}

func TestStatusScheduler_MissingMessageIsNoOp(t *testing.T) {
	req := require.New(t)
	scheduler, _ := newSchedulerUnderTest(t, nil)

	ghost := domain.Message{ID: 999, Room: "general"}
	scheduler.Schedule(ghost)

	req.Equal(0, scheduler.Advance(time.Hour))
	req.Equal(0, scheduler.PendingCount())
}

func TestStatusScheduler_EmitsStatusEvents(t *testing.T) {
	req := require.New(t)
	events := make(chan event.DomainEvent, 8)
	scheduler, repo := newSchedulerUnderTest(t, events)

	stored, err := repo.Store(domain.Message{Author: "Alice", Room: "general", Content: "hello"})
	req.NoError(err)
	scheduler.Schedule(stored)
	scheduler.Advance(time.Hour)

	req.Len(events, 2)
	evt := (<-events).(event.StatusAdvanced)
	req.Equal(stored.ID, evt.ID)
	req.Equal(domain.StatusSent, evt.Status)
	evt = (<-events).(event.StatusAdvanced)
	req.Equal(domain.StatusDelivered, evt.Status)
	req.Equal(domain.RoomID("general"), evt.Room)
}

func TestDelays_Valid(t *testing.T) {
	req := require.New(t)
	req.True(DefaultDelays().Valid())
	req.False(Delays{Sent: 2 * time.Second, Delivered: 2 * time.Second, Read: 3 * time.Second}.Valid())
	req.False(Delays{Sent: 0, Delivered: time.Second, Read: 2 * time.Second}.Valid())
}
