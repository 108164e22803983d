// Package telemetry records operational events for dispatched actions. The
// store is pluggable; the default is an in-memory ring kept for the debug
// endpoint, since no core state is ever persisted.
package telemetry

import (
	"context"
	"sync"
	"time"
)

// Severity describes the telemetry severity level.
type Severity string

const (
	SeverityInfo Severity = "INFO"
	SeverityWarn Severity = "WARN"
)

// Event is one recorded state transition. Warn events carry the rejection
// diagnostic in Message and may have no action context.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Severity    Severity  `json:"severity"`
	Action      string    `json:"action,omitempty"`
	Message     string    `json:"message,omitempty"`
	PhaseBefore string    `json:"phaseBefore"`
	PhaseAfter  string    `json:"phaseAfter"`
	CombatPhase string    `json:"combatPhase,omitempty"`
	Corruption  float64   `json:"corruption"`
	GameOver    bool      `json:"gameOver,omitempty"`
}

// Store receives emitted events.
type Store interface {
	AppendEvent(ctx context.Context, evt Event) error
}

// Emitter records telemetry events.
type Emitter struct {
	store Store
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store Store) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event. It is a no-op when the store is nil.
func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if e == nil || e.store == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		if e.clock == nil {
			evt.Timestamp = time.Now().UTC()
		} else {
			evt.Timestamp = e.clock().UTC()
		}
	}
	return e.store.AppendEvent(ctx, evt)
}

// RingStore keeps the most recent events in memory.
type RingStore struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

// NewRingStore creates a ring store holding at most limit events.
func NewRingStore(limit int) *RingStore {
	if limit <= 0 {
		limit = 256
	}
	return &RingStore{limit: limit}
}

// AppendEvent implements Store, evicting the oldest event at capacity.
func (s *RingStore) AppendEvent(_ context.Context, evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	if len(s.events) > s.limit {
		s.events = s.events[len(s.events)-s.limit:]
	}
	return nil
}

// Events returns a copy of the stored events, oldest first.
func (s *RingStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
