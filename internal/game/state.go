// Package game owns the central game state machine: day and time-of-day
// progression, round and attempt counters, corruption, the daily target
// economy, and the combat sub-state. State transitions are pure functions of
// (state, action) applied by the Reducer.
package game

import (
	"github.com/mjguillemette/hollowroom/internal/combat"
	"github.com/mjguillemette/hollowroom/internal/rules"
	"github.com/mjguillemette/hollowroom/internal/scoring"
	"github.com/mjguillemette/hollowroom/internal/transform"
)

// TimeOfDay is the cyclic morning/midday/night clock.
type TimeOfDay string

const (
	Morning TimeOfDay = "morning"
	Midday  TimeOfDay = "midday"
	Night   TimeOfDay = "night"
)

// Next returns the following period. Night wraps to morning, which marks a
// day boundary.
func (t TimeOfDay) Next() TimeOfDay {
	switch t {
	case Morning:
		return Midday
	case Midday:
		return Night
	default:
		return Morning
	}
}

// Phase is the top-level game phase.
type Phase string

const (
	PhaseMenu          Phase = "menu"
	PhaseIdle          Phase = "idle"
	PhaseThrowing      Phase = "throwing"
	PhaseSettled       Phase = "settled"
	PhaseEvaluating    Phase = "evaluating"
	PhaseItemSelection Phase = "item_selection"
)

// ScoringState tracks the best score sheet for the current time-of-day
// period and retains the finished sheets of earlier periods.
type ScoringState struct {
	Current          []scoring.CategoryScore               `json:"currentScores"`
	Historical       map[TimeOfDay][]scoring.CategoryScore `json:"historicalScores,omitempty"`
	CurrentTimeOfDay TimeOfDay                             `json:"currentTimeOfDay"`
}

// DieModifiers holds the transformation stack on one die together with its
// composed effect bundle, recomputed on every change so the rendering layer
// reads effects without composing.
type DieModifiers struct {
	Transformations []transform.Transformation `json:"transformations"`
	Effects         transform.Effects          `json:"effects"`
}

// State is the root aggregate for the whole core. It is the single owner of
// every entity: enemies, score entries, and die modifiers live and die with
// their containing collections.
type State struct {
	TimeOfDay       TimeOfDay            `json:"timeOfDay"`
	DaysMarked      int                  `json:"daysMarked"`
	SuccessfulRolls int                  `json:"successfulRolls"`
	CurrentAttempts int                  `json:"currentAttempts"`
	Phase           Phase                `json:"phase"`
	TotalAttempts   int                  `json:"totalAttempts"`
	TotalSuccesses  int                  `json:"totalSuccesses"`
	Scoring         ScoringState         `json:"scoring"`
	DailyTarget     int                  `json:"dailyTarget"`
	DailyBestScore  int                  `json:"dailyBestScore"`
	Corruption      float64              `json:"corruption"`
	GameOver        bool                 `json:"isGameOver"`
	Combat          combat.State         `json:"combat"`
	DiceModifiers   map[int]DieModifiers `json:"diceModifiers,omitempty"`
}

// New returns the initial state: menu phase, first morning, zeroed scores.
func New(r rules.Rules) State {
	return State{
		TimeOfDay:  Morning,
		DaysMarked: 1,
		Phase:      PhaseMenu,
		Scoring: ScoringState{
			Current:          scoring.EmptyScores(),
			CurrentTimeOfDay: Morning,
		},
		DailyTarget: r.DailyTarget(1),
		Combat: combat.State{
			PlayerHP:    r.StartingPlayerHP,
			MaxPlayerHP: r.StartingPlayerHP,
		},
	}
}

// Clone returns a deep copy of the state. Reducer outputs and engine
// snapshots are cloned so callers can never alias internal slices.
func (s State) Clone() State {
	out := s
	out.Scoring.Current = scoring.CloneScores(s.Scoring.Current)
	if s.Scoring.Historical != nil {
		out.Scoring.Historical = make(map[TimeOfDay][]scoring.CategoryScore, len(s.Scoring.Historical))
		for period, sheet := range s.Scoring.Historical {
			out.Scoring.Historical[period] = scoring.CloneScores(sheet)
		}
	}
	out.Combat = s.Combat.Clone()
	if s.DiceModifiers != nil {
		out.DiceModifiers = make(map[int]DieModifiers, len(s.DiceModifiers))
		for id, mods := range s.DiceModifiers {
			mods.Transformations = append([]transform.Transformation(nil), mods.Transformations...)
			out.DiceModifiers[id] = mods
		}
	}
	return out
}
