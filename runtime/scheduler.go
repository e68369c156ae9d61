// Package runtime drives the engine's asynchronous pieces: the pending
// status transitions, participant registry, and supporting loaders.
// It orchestrates without containing domain rules.
package runtime

import (
	"container/heap"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chathub/domain"
	"chathub/domain/event"
	"chathub/errors"
	"chathub/observability"
	"chathub/repositories"
)

// Delays configures the staged delivery progression. Values must be
// strictly increasing so the stages of one message fire in order
// without cross-callback coordination.
type Delays struct {
	Sent      time.Duration
	Delivered time.Duration
	Read      time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		Sent:      1 * time.Second,
		Delivered: 2 * time.Second,
		Read:      3 * time.Second,
	}
}

// Valid reports whether the stages are strictly increasing.
func (d Delays) Valid() bool {
	return 0 < d.Sent && d.Sent < d.Delivered && d.Delivered < d.Read
}

type transition struct {
	id     domain.MessageID
	room   domain.RoomID
	target domain.Status
	due    time.Time
	seq    int64 // breaks due-time ties in schedule order
}

type transitionHeap []transition

func (h transitionHeap) Len() int { return len(h) }
func (h transitionHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h transitionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *transitionHeap) Push(x any)   { *h = append(*h, x.(transition)) }
func (h *transitionHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// StatusScheduler holds the pending delivery transitions in a due-time
// heap. Live mode drives it from wall-clock ticks; tests advance
// virtual time with Advance and never sleep. Transitions are
// non-cancelable once scheduled.
type StatusScheduler struct {
	mu      sync.Mutex
	log     *slog.Logger
	repo    repositories.IMessageRepository
	events  chan<- event.DomainEvent
	pending transitionHeap
	delays  Delays
	nowFn   func() time.Time
	elapsed time.Duration
	seq     int64

	monitoring *observability.MonitoringManager
}

// NewStatusScheduler wires the scheduler to the message store it
// patches and an optional event channel for projections. A nil events
// channel disables emission.
func NewStatusScheduler(repo repositories.IMessageRepository, delays Delays,
	events chan<- event.DomainEvent, log *slog.Logger) *StatusScheduler {
	return &StatusScheduler{
		log:    log,
		repo:   repo,
		events: events,
		delays: delays,
		nowFn:  time.Now,
	}
}

// WithMonitoring enables telemetry counters.
func (s *StatusScheduler) WithMonitoring(m *observability.MonitoringManager) *StatusScheduler {
	s.monitoring = m
	return s
}

// WithClock replaces the time source. Test hook.
func (s *StatusScheduler) WithClock(nowFn func() time.Time) *StatusScheduler {
	s.nowFn = nowFn
	return s
}

// Schedule enqueues the staged transitions for a freshly stored
// message: sent, delivered, and, for voice notes only, read.
func (s *StatusScheduler) Schedule(m domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.nowFn().Add(s.elapsed)
	s.push(m, domain.StatusSent, base.Add(s.delays.Sent))
	s.push(m, domain.StatusDelivered, base.Add(s.delays.Delivered))
	if m.Kind() == domain.KindVoice {
		s.push(m, domain.StatusRead, base.Add(s.delays.Read))
	}
}

func (s *StatusScheduler) push(m domain.Message, target domain.Status, due time.Time) {
	s.seq++
	heap.Push(&s.pending, transition{
		id:     m.ID,
		room:   m.Room,
		target: target,
		due:    due,
		seq:    s.seq,
	})
}

// Tick fires every transition due at or before now and reports how many
// were applied. A message the store no longer knows is silently
// skipped.
func (s *StatusScheduler) Tick(now time.Time) int {
	s.mu.Lock()
	var due []transition
	for s.pending.Len() > 0 && !s.pending[0].due.After(now) {
		due = append(due, heap.Pop(&s.pending).(transition))
	}
	s.mu.Unlock()

	applied := 0
	for _, tr := range due {
		if s.apply(tr) {
			applied++
		}
	}
	return applied
}

// Advance moves virtual time forward and fires what became due. Later
// Schedule calls observe the advanced time, so tests can interleave
// sends and delays deterministically.
func (s *StatusScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	s.elapsed += d
	now := s.nowFn().Add(s.elapsed)
	s.mu.Unlock()
	return s.Tick(now)
}

// PendingCount reports how many transitions are still queued.
func (s *StatusScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Len()
}

func (s *StatusScheduler) apply(tr transition) bool {
	advanced := false
	patched, err := s.repo.Patch(tr.id, func(m *domain.Message) error {
		advanced = m.AdvanceStatus(tr.target)
		return nil
	})
	if err != nil {
		// The record may have been removed between scheduling and
		// firing; the transition is then a no-op.
		if stderrors.Is(err, errors.ErrMessageNotFound) {
			return false
		}
		s.log.Warn("Status transition failed", "id", tr.id, "target", tr.target.String(), "error", err)
		return false
	}
	if !advanced {
		return false
	}

	s.log.Debug(fmt.Sprintf("Message %d is now %s", patched.ID, patched.Status))
	if s.monitoring != nil {
		s.monitoring.TransitionApplied()
	}
	if s.events != nil {
		select {
		case s.events <- event.StatusAdvanced{
			ID:     patched.ID,
			Room:   patched.Room,
			Status: patched.Status,
			At:     s.nowFn(),
		}:
		default:
			s.log.Debug("Event channel full, status event lost")
		}
	}
	return true
}
