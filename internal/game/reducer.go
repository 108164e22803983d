package game

import (
	"log"
	"math/rand"

	"github.com/mjguillemette/hollowroom/internal/combat"
	"github.com/mjguillemette/hollowroom/internal/rules"
	"github.com/mjguillemette/hollowroom/internal/scoring"
	"github.com/mjguillemette/hollowroom/internal/transform"
)

// Reducer applies actions to game state. Every transition is a pure function
// of (state, action): invalid transitions are logged and return the state
// unchanged, never a panic. Randomness and logging are injected so tests can
// pin them; nil fields fall back to math/rand and the standard logger.
type Reducer struct {
	Rules rules.Rules
	// Roll returns a uniform value in [1, sides].
	Roll func(sides int) int
	// Warnf receives rejected-action diagnostics.
	Warnf func(format string, args ...any)
}

// NewReducer returns a reducer with the given rules and default dependencies.
func NewReducer(r rules.Rules) *Reducer {
	return &Reducer{Rules: r}
}

// Reduce dispatches an action to its transition function.
func (r *Reducer) Reduce(s State, action Action) State {
	switch act := action.(type) {
	case StartGame:
		return r.applyStartGame(s)
	case ReturnToMenu:
		return r.applyReturnToMenu(s)
	case ThrowDice:
		return r.applyThrowDice(s, act)
	case DiceSettled:
		return r.applyDiceSettled(s, act)
	case SuccessfulRoll:
		return r.applySuccessfulRoll(s, act)
	case FailedRoll:
		return r.applyFailedRoll(s)
	case ItemSelected:
		return r.applyItemSelected(s, act)
	case CombatStart:
		return r.applyCombatStart(s, act)
	case CombatEnemyRoll:
		return r.applyCombatEnemyRoll(s)
	case CombatSelectAbility:
		return r.applyCombatSelectAbility(s, act)
	case CombatSelectEnemy:
		return r.applyCombatSelectEnemy(s, act)
	case CombatUseAbility:
		return r.applyCombatUseAbility(s, act)
	case CombatResolve:
		return r.applyCombatResolve(s)
	case CombatEnd:
		return r.applyCombatEnd(s)
	default:
		r.warnf("unknown action %T ignored", action)
		return s
	}
}

func (r *Reducer) applyStartGame(s State) State {
	if s.Phase != PhaseMenu {
		r.warnf("START_GAME ignored in phase %s", s.Phase)
		return s
	}
	if s.GameOver {
		out := r.reset(s)
		out.Phase = PhaseItemSelection
		return out
	}
	out := s.Clone()
	if s.TotalAttempts == 0 {
		out.Phase = PhaseItemSelection
	} else {
		// A run is already in progress: resume play.
		out.Phase = PhaseIdle
	}
	return out
}

func (r *Reducer) applyReturnToMenu(s State) State {
	return r.reset(s)
}

// reset restores the initial state while preserving the lifetime counters.
func (r *Reducer) reset(s State) State {
	out := New(r.Rules)
	out.TotalAttempts = s.TotalAttempts
	out.TotalSuccesses = s.TotalSuccesses
	return out
}

func (r *Reducer) applyThrowDice(s State, act ThrowDice) State {
	if s.Phase != PhaseIdle && s.Phase != PhaseSettled {
		r.warnf("THROW_DICE ignored in phase %s", s.Phase)
		return s
	}
	if s.CurrentAttempts >= r.Rules.MaxAttemptsPerRound {
		r.warnf("THROW_DICE ignored: %d attempts already used", s.CurrentAttempts)
		return s
	}
	out := s.Clone()

	// Safety net: reset the sheet if a period boundary slipped past without
	// a completed round (combat fast-forwards can do this).
	if out.Scoring.CurrentTimeOfDay != out.TimeOfDay {
		stashPeriod(&out)
	}

	perThrow := r.Rules.CorruptionPerThrow
	if act.CorruptionPerRoll != nil {
		perThrow = *act.CorruptionPerRoll
	}
	out.Corruption = clamp01(out.Corruption + perThrow)
	if out.Corruption >= 1 {
		out.GameOver = true
		out.Phase = PhaseMenu
		return out
	}

	out.CurrentAttempts++
	out.TotalAttempts++
	out.Phase = PhaseThrowing
	return out
}

func (r *Reducer) applyDiceSettled(s State, act DiceSettled) State {
	if s.Phase != PhaseThrowing {
		r.warnf("DICE_SETTLED ignored in phase %s", s.Phase)
		return s
	}
	out := s.Clone()

	previous := act.Previous
	if previous == nil {
		previous = out.Scoring.Current
	}
	settled := scoring.Calculate(scoring.Input{
		Roll:        act.Roll,
		Attempt:     out.CurrentAttempts,
		Previous:    previous,
		ComboActive: act.ComboActive,
		ComboBonus:  &r.Rules.ComboBonus,
	})
	out.Scoring.Current = scoring.MergeBest(out.Scoring.Current, settled)
	out.Scoring.CurrentTimeOfDay = out.TimeOfDay

	if total := scoring.AchievedTotal(out.Scoring.Current); total > out.DailyBestScore {
		out.DailyBestScore = total
	}

	// The best highest_total of the period drives the combat HP cap: a new
	// record raises the cap and heals the difference. The cap never drops.
	for _, entry := range out.Scoring.Current {
		if entry.Category == scoring.CategoryHighestTotal && entry.Achieved && entry.Score > out.Combat.MaxPlayerHP {
			out.Combat.PlayerHP += entry.Score - out.Combat.MaxPlayerHP
			out.Combat.MaxPlayerHP = entry.Score
		}
	}

	out.Combat.CurrentRoll = &combat.RollSnapshot{
		Values:           append([]int(nil), act.Roll.Values...),
		DiceIDs:          append([]int(nil), act.Roll.DiceIDs...),
		ScoreMultipliers: append([]float64(nil), act.Roll.ScoreMultipliers...),
	}

	out.Phase = PhaseSettled
	return out
}

func (r *Reducer) applySuccessfulRoll(s State, act SuccessfulRoll) State {
	if s.Phase != PhaseSettled {
		r.warnf("SUCCESSFUL_ROLL ignored in phase %s", s.Phase)
		return s
	}
	out := s.Clone()
	r.completeRound(&out, true, act.CigaretteBonus)
	return out
}

func (r *Reducer) applyFailedRoll(s State) State {
	if s.Phase != PhaseSettled {
		r.warnf("FAILED_ROLL ignored in phase %s", s.Phase)
		return s
	}
	out := s.Clone()
	if out.CurrentAttempts < r.Rules.MaxAttemptsPerRound {
		// Attempts remain: back to idle for a retry, round still open.
		out.Phase = PhaseIdle
		return out
	}
	// Exhausted rounds still advance the clock; only the success bookkeeping
	// differs.
	r.completeRound(&out, false, 0)
	return out
}

func (r *Reducer) applyItemSelected(s State, act ItemSelected) State {
	if s.Phase != PhaseItemSelection {
		r.warnf("ITEM_SELECTED ignored in phase %s", s.Phase)
		return s
	}
	out := s.Clone()
	if act.Transformation != "" {
		for _, dieID := range act.DiceIDs {
			if out.DiceModifiers == nil {
				out.DiceModifiers = map[int]DieModifiers{}
			}
			mods := out.DiceModifiers[dieID]
			applied, err := transform.Apply(mods.Transformations, act.Transformation, nil)
			if err != nil {
				// Non-stackable duplicates and unknown templates skip the die;
				// the selection still closes.
				r.warnf("ITEM_SELECTED transformation %q on die %d skipped: %v", act.Transformation, dieID, err)
				continue
			}
			mods.Transformations = applied
			mods.Effects = transform.Compose(applied)
			out.DiceModifiers[dieID] = mods
		}
	}
	out.Phase = PhaseIdle
	return out
}

func (r *Reducer) applyCombatStart(s State, act CombatStart) State {
	if s.Combat.Active() {
		r.warnf("COMBAT_START ignored: combat already in phase %s", s.Combat.Phase)
		return s
	}
	out := s.Clone()
	out.Combat = combat.Start(out.Combat, act.Enemies)
	return out
}

func (r *Reducer) applyCombatEnemyRoll(s State) State {
	if s.Combat.Phase != combat.PhaseEnemySpawn && s.Combat.Phase != combat.PhaseAwaitRoll {
		r.warnf("COMBAT_ENEMY_ROLL ignored in combat phase %s", s.Combat.Phase)
		return s
	}
	out := s.Clone()
	out.Combat = combat.EnemyRoll(out.Combat, r.Rules.EnemyDamageDie, r.Rules.EnemyDisplayDie, r.roll)
	return out
}

func (r *Reducer) applyCombatSelectAbility(s State, act CombatSelectAbility) State {
	if s.Combat.Phase != combat.PhasePlayerTurn {
		r.warnf("COMBAT_SELECT_ABILITY ignored in combat phase %s", s.Combat.Phase)
		return s
	}
	if !act.Category.Valid() {
		r.warnf("COMBAT_SELECT_ABILITY ignored: unknown category %q", act.Category)
		return s
	}
	out := s.Clone()
	out.Combat = combat.SelectAbility(out.Combat, act.Category)
	return out
}

func (r *Reducer) applyCombatSelectEnemy(s State, act CombatSelectEnemy) State {
	if s.Combat.Phase != combat.PhasePlayerTurn {
		r.warnf("COMBAT_SELECT_ENEMY ignored in combat phase %s", s.Combat.Phase)
		return s
	}
	out := s.Clone()
	out.Combat = combat.SelectEnemy(out.Combat, act.EnemyID)
	return out
}

func (r *Reducer) applyCombatUseAbility(s State, act CombatUseAbility) State {
	if s.Combat.Phase != combat.PhasePlayerTurn {
		r.warnf("COMBAT_USE_ABILITY ignored in combat phase %s", s.Combat.Phase)
		return s
	}
	out := s.Clone()
	next, err := combat.UseAbility(out.Combat, out.Scoring.Current, act.EnemyID)
	if err != nil {
		r.warnf("COMBAT_USE_ABILITY rejected: %v", err)
		return s
	}
	out.Combat = next
	return out
}

func (r *Reducer) applyCombatResolve(s State) State {
	if s.Combat.Phase != combat.PhasePlayerTurn {
		r.warnf("COMBAT_RESOLVE ignored in combat phase %s", s.Combat.Phase)
		return s
	}
	out := s.Clone()
	resolved, outcome := combat.Resolve(out.Combat)
	out.Combat = resolved

	switch outcome {
	case combat.OutcomeDefeat:
		out.GameOver = true
		out.Phase = PhaseMenu
	case combat.OutcomeVictory:
		// The victory bonus is banked by fast-forwarding the round clock:
		// every round remaining until the next time-of-day change is
		// credited as free progress, which advances time exactly once.
		remaining := r.Rules.RollsPerPeriod - out.SuccessfulRolls%r.Rules.RollsPerPeriod
		out.SuccessfulRolls += remaining
		out.CurrentAttempts = 0
		out.Phase = PhaseIdle
		r.advancePeriod(&out)
	}
	return out
}

func (r *Reducer) applyCombatEnd(s State) State {
	out := s.Clone()
	out.Combat = combat.End(out.Combat)
	return out
}

func (r *Reducer) roll(sides int) int {
	if r.Roll != nil {
		return r.Roll(sides)
	}
	return rand.Intn(sides) + 1
}

func (r *Reducer) warnf(format string, args ...any) {
	if r.Warnf != nil {
		r.Warnf(format, args...)
		return
	}
	log.Printf("game: "+format, args...)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
