// Package engine wraps the game reducer in a serial dispatch container: one
// mutable state, actions applied strictly in dispatch order, snapshots
// deep-copied so callers never alias live state.
package engine

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mjguillemette/hollowroom/internal/game"
	"github.com/mjguillemette/hollowroom/internal/rules"
	"github.com/mjguillemette/hollowroom/internal/telemetry"
)

const tracerName = "github.com/mjguillemette/hollowroom/internal/game/engine"

// Engine owns a single game state and applies actions to it serially.
type Engine struct {
	mu      sync.Mutex
	reducer *game.Reducer
	state   game.State
	emitter *telemetry.Emitter
	tracer  trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmitter attaches a telemetry emitter recording one event per action.
func WithEmitter(emitter *telemetry.Emitter) Option {
	return func(e *Engine) { e.emitter = emitter }
}

// WithReducer replaces the default reducer, letting tests pin randomness.
func WithReducer(reducer *game.Reducer) Option {
	return func(e *Engine) { e.reducer = reducer }
}

// New creates an engine with a fresh initial state.
func New(r rules.Rules, opts ...Option) *Engine {
	e := &Engine{
		reducer: game.NewReducer(r),
		state:   game.New(r),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dispatch applies one action and returns the resulting snapshot. Actions
// are serialized: each transition completes atomically before the next is
// processed.
func (e *Engine) Dispatch(ctx context.Context, action game.Action) game.State {
	ctx, span := e.tracer.Start(ctx, "engine.dispatch",
		trace.WithAttributes(attribute.String("game.action", action.ActionType())))
	defer span.End()

	e.mu.Lock()
	before := e.state
	e.state = e.reducer.Reduce(e.state, action)
	after := e.state
	e.mu.Unlock()

	evt := telemetry.Event{
		Severity:    telemetry.SeverityInfo,
		Action:      action.ActionType(),
		PhaseBefore: string(before.Phase),
		PhaseAfter:  string(after.Phase),
		CombatPhase: string(after.Combat.Phase),
		Corruption:  after.Corruption,
		GameOver:    after.GameOver,
	}
	_ = e.emitter.Emit(ctx, evt)

	return after.Clone()
}

// State returns a snapshot of the current state.
func (e *Engine) State() game.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}
