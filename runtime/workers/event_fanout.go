package workers

import (
	"context"
	"log/slog"
	"time"

	"chathub/contract"
	"chathub/domain/event"
)

// EventFanout broadcasts domain events to multiple in-process
// consumers: projections, the search index, room member sinks.
//
// It provides best-effort fan-out with no guarantees regarding
// delivery, ordering, durability, or retries. It is intended for read
// models and side effects, not for core domain logic.
type EventFanout struct {
	log         *slog.Logger
	events      chan event.DomainEvent
	sinks       []contract.EventSink
	registry    contract.IRegistry
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, events chan event.DomainEvent,
	registry contract.IRegistry, sinkTimeout time.Duration) *EventFanout {
	return &EventFanout{
		log:         log,
		events:      events,
		registry:    registry,
		sinkTimeout: sinkTimeout,
	}
}

// Add appends permanent sinks that receive every event.
func (w *EventFanout) Add(sinks ...contract.EventSink) *EventFanout {
	w.sinks = append(w.sinks, sinks...)
	return w
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return ctx.Err()
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.Fanout(ctx, evt)
		}
	}
}

// Fanout delivers one event to the permanent sinks and to every member
// of the event's room, each delivery bounded by the sink timeout.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	targets := append([]contract.EventSink(nil), w.sinks...)
	if w.registry != nil {
		targets = append(targets, w.registry.GetSinksForRoom(evt.RoomID())...)
	}

	for _, sink := range targets {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink rejected event", "error", err)
		}
		cancel()
	}
}
