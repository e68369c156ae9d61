// Package observability aggregates engine counters for telemetry.
package observability

import (
	"sync/atomic"
)

// EngineStats is a snapshot of the engine counters.
type EngineStats struct {
	MessagesPosted     uint64 `json:"messages_posted"`
	VotesRecorded      uint64 `json:"votes_recorded"`
	TransitionsApplied uint64 `json:"transitions_applied"`
	RoomsCreated       uint64 `json:"rooms_created"`
}

// MonitoringManager collects counters from the hot paths with atomics;
// readers get consistent-enough snapshots without locking writers.
type MonitoringManager struct {
	messagesPosted     atomic.Uint64
	votesRecorded      atomic.Uint64
	transitionsApplied atomic.Uint64
	roomsCreated       atomic.Uint64
}

func NewMonitoringManager() *MonitoringManager {
	return &MonitoringManager{}
}

func (m *MonitoringManager) MessagePosted()     { m.messagesPosted.Add(1) }
func (m *MonitoringManager) VoteRecorded()      { m.votesRecorded.Add(1) }
func (m *MonitoringManager) TransitionApplied() { m.transitionsApplied.Add(1) }
func (m *MonitoringManager) RoomCreated()       { m.roomsCreated.Add(1) }

// GetLatest returns the current counter values.
func (m *MonitoringManager) GetLatest() EngineStats {
	return EngineStats{
		MessagesPosted:     m.messagesPosted.Load(),
		VotesRecorded:      m.votesRecorded.Load(),
		TransitionsApplied: m.transitionsApplied.Load(),
		RoomsCreated:       m.roomsCreated.Load(),
	}
}
