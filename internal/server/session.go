package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/mjguillemette/hollowroom/internal/errors"
	"github.com/mjguillemette/hollowroom/internal/game/engine"
)

// Transport abstracts the websocket connection so session logic can be
// tested without a network.
type Transport interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close(code int, reason string) error
}

type wsTransport struct {
	conn *websocket.Conn
}

func newTransportFrom(conn *websocket.Conn) Transport {
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t *wsTransport) Close(code int, reason string) error {
	return t.conn.Close(websocket.StatusCode(code), reason)
}

// Session binds one connection to one engine. Each connection owns an
// isolated game; nothing is shared between sessions.
type Session struct {
	id        uuid.UUID
	engine    *engine.Engine
	transport Transport
	logf      func(format string, args ...any)
}

// NewSession creates a session around an engine and transport.
func NewSession(eng *engine.Engine, transport Transport) *Session {
	return &Session{
		id:        uuid.New(),
		engine:    eng,
		transport: transport,
		logf:      log.Printf,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Run pushes the initial snapshot, then loops reading action envelopes and
// writing the resulting snapshots until the connection or context ends.
func (s *Session) Run(ctx context.Context) error {
	if err := s.writeState(ctx); err != nil {
		return err
	}

	for {
		data, err := s.transport.Read(ctx)
		if err != nil {
			return errors.Wrap(errors.CodeSessionClosed, fmt.Sprintf("session %s read", s.id), err)
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			if err := s.writeError(ctx, fmt.Errorf("decode envelope: %w", err)); err != nil {
				return err
			}
			continue
		}

		action, err := DecodeAction(env)
		if err != nil {
			s.logf("session %s rejected %q: %v", s.id, env.Type, err)
			if err := s.writeError(ctx, err); err != nil {
				return err
			}
			continue
		}

		state := s.engine.Dispatch(ctx, action)
		frame, err := EncodeState(state)
		if err != nil {
			return err
		}
		if err := s.transport.Write(ctx, frame); err != nil {
			return errors.Wrap(errors.CodeSessionClosed, fmt.Sprintf("session %s write", s.id), err)
		}
	}
}

func (s *Session) writeState(ctx context.Context) error {
	frame, err := EncodeState(s.engine.State())
	if err != nil {
		return err
	}
	return s.transport.Write(ctx, frame)
}

func (s *Session) writeError(ctx context.Context, cause error) error {
	frame, err := EncodeError(cause)
	if err != nil {
		return err
	}
	return s.transport.Write(ctx, frame)
}
