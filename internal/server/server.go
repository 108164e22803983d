package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/mjguillemette/hollowroom/internal/game"
	"github.com/mjguillemette/hollowroom/internal/game/engine"
	"github.com/mjguillemette/hollowroom/internal/rules"
	"github.com/mjguillemette/hollowroom/internal/server/random"
	"github.com/mjguillemette/hollowroom/internal/telemetry"
)

const shutdownGrace = 5 * time.Second

// Server hosts the websocket game API. Each accepted connection gets its own
// engine; the telemetry ring is shared so the debug endpoint sees every
// session.
type Server struct {
	http     *http.Server
	listener net.Listener
	rules    rules.Rules
	events   *telemetry.RingStore
	seedFunc func() (int64, error) // Generates per-session random seeds.
}

// New creates a configured server listening on the provided address.
func New(addr string, r rules.Rules) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s := &Server{
		listener: listener,
		rules:    r,
		events:   telemetry.NewRingStore(0),
		seedFunc: random.NewSeed,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/debug/events", s.handleEvents)
	s.http = &http.Server{Handler: mux}

	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve starts the server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		log.Printf("server listening at %v", s.listener.Addr())
		errc <- s.http.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Local browser client; origin is not checked.
	})
	if err != nil {
		log.Printf("websocket accept: %v", err)
		return
	}

	session := NewSession(s.newEngine(), newTransportFrom(conn))
	log.Printf("session %s connected", session.ID())
	if err := session.Run(r.Context()); err != nil {
		log.Printf("session %s closed: %v", session.ID(), err)
	}
	conn.Close(websocket.StatusNormalClosure, "session ended")
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.events.Events())
}

// newEngine builds a per-session engine with an independently seeded dice
// roller and the shared telemetry ring. Reducer rejections are logged and
// recorded as warn events so the debug feed shows them alongside dispatches.
func (s *Server) newEngine() *engine.Engine {
	emitter := telemetry.NewEmitter(s.events)
	reducer := game.NewReducer(s.rules)
	if seed, err := s.seedFunc(); err == nil {
		rng := rand.New(rand.NewSource(seed))
		reducer.Roll = func(sides int) int { return rng.Intn(sides) + 1 }
	}
	reducer.Warnf = func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("game: %s", msg)
		_ = emitter.Emit(context.Background(), telemetry.Event{
			Severity: telemetry.SeverityWarn,
			Message:  msg,
		})
	}
	return engine.New(s.rules,
		engine.WithReducer(reducer),
		engine.WithEmitter(emitter),
	)
}
