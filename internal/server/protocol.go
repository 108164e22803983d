// Package server hosts the websocket API for the game engine: one session
// per connection, JSON action envelopes in, full state snapshots out.
package server

import (
	"encoding/json"
	"fmt"

	"github.com/mjguillemette/hollowroom/internal/errors"
	"github.com/mjguillemette/hollowroom/internal/game"
)

// Frame type names for outbound messages.
const (
	FrameState = "STATE"
	FrameError = "ERROR"
)

// Envelope is the wire format for both directions: a type tag and a
// type-specific payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is the payload of an ERROR frame.
type ErrorPayload struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Status   int               `json:"status"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// DecodeAction converts an inbound envelope into a game action.
func DecodeAction(env Envelope) (game.Action, error) {
	var action game.Action
	switch env.Type {
	case game.ActionStartGame:
		action = &game.StartGame{}
	case game.ActionReturnToMenu:
		action = &game.ReturnToMenu{}
	case game.ActionThrowDice:
		action = &game.ThrowDice{}
	case game.ActionDiceSettled:
		action = &game.DiceSettled{}
	case game.ActionSuccessfulRoll:
		action = &game.SuccessfulRoll{}
	case game.ActionFailedRoll:
		action = &game.FailedRoll{}
	case game.ActionItemSelected:
		action = &game.ItemSelected{}
	case game.ActionCombatStart:
		action = &game.CombatStart{}
	case game.ActionCombatEnemyRoll:
		action = &game.CombatEnemyRoll{}
	case game.ActionCombatSelectAbility:
		action = &game.CombatSelectAbility{}
	case game.ActionCombatSelectEnemy:
		action = &game.CombatSelectEnemy{}
	case game.ActionCombatUseAbility:
		action = &game.CombatUseAbility{}
	case game.ActionCombatResolve:
		action = &game.CombatResolve{}
	case game.ActionCombatEnd:
		action = &game.CombatEnd{}
	default:
		return nil, errors.WithMetadata(errors.CodeActionUnknownType,
			fmt.Sprintf("unknown action type %q", env.Type),
			map[string]string{"type": env.Type})
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, action); err != nil {
			return nil, errors.Wrap(errors.CodeActionInvalidPayload,
				fmt.Sprintf("decode %s payload", env.Type), err)
		}
	}
	return deref(action), nil
}

// deref unboxes the pointer used for unmarshaling so callers receive the
// same value types the reducer switches on.
func deref(action game.Action) game.Action {
	switch a := action.(type) {
	case *game.StartGame:
		return *a
	case *game.ReturnToMenu:
		return *a
	case *game.ThrowDice:
		return *a
	case *game.DiceSettled:
		return *a
	case *game.SuccessfulRoll:
		return *a
	case *game.FailedRoll:
		return *a
	case *game.ItemSelected:
		return *a
	case *game.CombatStart:
		return *a
	case *game.CombatEnemyRoll:
		return *a
	case *game.CombatSelectAbility:
		return *a
	case *game.CombatSelectEnemy:
		return *a
	case *game.CombatUseAbility:
		return *a
	case *game.CombatResolve:
		return *a
	case *game.CombatEnd:
		return *a
	default:
		return action
	}
}

// EncodeState builds a STATE frame carrying a full snapshot.
func EncodeState(state game.State) ([]byte, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return json.Marshal(Envelope{Type: FrameState, Payload: payload})
}

// EncodeError builds an ERROR frame from any error, mapping domain codes to
// HTTP-style statuses.
func EncodeError(err error) ([]byte, error) {
	payload, marshalErr := json.Marshal(ErrorPayload{
		Code:     string(errors.GetCode(err)),
		Message:  err.Error(),
		Status:   errors.HTTPStatus(err),
		Metadata: errors.GetMetadata(err),
	})
	if marshalErr != nil {
		return nil, fmt.Errorf("marshal error payload: %w", marshalErr)
	}
	return json.Marshal(Envelope{Type: FrameError, Payload: payload})
}
