package game

import (
	"github.com/mjguillemette/hollowroom/internal/combat"
	"github.com/mjguillemette/hollowroom/internal/scoring"
	"github.com/mjguillemette/hollowroom/internal/transform"
)

// Action type names, matching the wire protocol consumed from the rendering
// layer.
const (
	ActionStartGame           = "START_GAME"
	ActionReturnToMenu        = "RETURN_TO_MENU"
	ActionThrowDice           = "THROW_DICE"
	ActionDiceSettled         = "DICE_SETTLED"
	ActionSuccessfulRoll      = "SUCCESSFUL_ROLL"
	ActionFailedRoll          = "FAILED_ROLL"
	ActionItemSelected        = "ITEM_SELECTED"
	ActionCombatStart         = "COMBAT_START"
	ActionCombatEnemyRoll     = "COMBAT_ENEMY_ROLL"
	ActionCombatSelectAbility = "COMBAT_SELECT_ABILITY"
	ActionCombatSelectEnemy   = "COMBAT_SELECT_ENEMY"
	ActionCombatUseAbility    = "COMBAT_USE_ABILITY"
	ActionCombatResolve       = "COMBAT_RESOLVE"
	ActionCombatEnd           = "COMBAT_END"
)

// Action is the tagged union of every inbound intent. Each concrete action
// reports its wire name through ActionType.
type Action interface {
	ActionType() string
}

// StartGame starts a fresh run, or resets after a game over.
type StartGame struct{}

// ReturnToMenu resets to the initial state, preserving lifetime counters.
type ReturnToMenu struct{}

// ThrowDice begins an attempt. CorruptionPerRoll overrides the configured
// per-throw corruption when an item modifies it; a present zero is honored.
type ThrowDice struct {
	CorruptionPerRoll *float64 `json:"corruptionPerRoll,omitempty"`
}

// DiceSettled reports the face values of all dice that settled inside the
// scoring receptacle. Dice outside the receptacle must already be excluded.
type DiceSettled struct {
	Roll        scoring.Roll `json:"roll"`
	ComboActive bool         `json:"comboActive,omitempty"`
	// Previous overrides the stored sheet used for combo detection. Leave
	// nil to compare against the current period's best sheet.
	Previous []scoring.CategoryScore `json:"previous,omitempty"`
}

// SuccessfulRoll completes a round in which every die landed in the
// receptacle. CigaretteBonus is extra corruption relief granted by an item.
type SuccessfulRoll struct {
	CigaretteBonus float64 `json:"cigaretteBonus,omitempty"`
}

// FailedRoll reports that some dice landed outside the receptacle. The round
// continues if attempts remain, otherwise it completes as an exhausted
// failure.
type FailedRoll struct{}

// ItemSelected closes the item selection screen. When the chosen item grants
// a dice transformation, Transformation names the template and DiceIDs the
// dice it lands on.
type ItemSelected struct {
	Transformation transform.Type `json:"transformation,omitempty"`
	DiceIDs        []int          `json:"diceIds,omitempty"`
}

// CombatStart begins an encounter with the given spawn list.
type CombatStart struct {
	Enemies []combat.Enemy `json:"enemies,omitempty"`
}

// CombatEnemyRoll rolls enemy attack values and opens the player turn.
type CombatEnemyRoll struct{}

// CombatSelectAbility arms a score category as the pending ability.
type CombatSelectAbility struct {
	Category scoring.Category `json:"category"`
}

// CombatSelectEnemy stores the chosen target.
type CombatSelectEnemy struct {
	EnemyID int `json:"enemyId"`
}

// CombatUseAbility resolves the armed ability. EnemyID, when present,
// overrides the previously selected target.
type CombatUseAbility struct {
	EnemyID *int `json:"enemyId,omitempty"`
}

// CombatResolve applies surviving enemies' attacks and closes the round.
type CombatResolve struct{}

// CombatEnd hard-resets the combat sub-state, preserving player HP.
type CombatEnd struct{}

func (StartGame) ActionType() string           { return ActionStartGame }
func (ReturnToMenu) ActionType() string        { return ActionReturnToMenu }
func (ThrowDice) ActionType() string           { return ActionThrowDice }
func (DiceSettled) ActionType() string         { return ActionDiceSettled }
func (SuccessfulRoll) ActionType() string      { return ActionSuccessfulRoll }
func (FailedRoll) ActionType() string          { return ActionFailedRoll }
func (ItemSelected) ActionType() string        { return ActionItemSelected }
func (CombatStart) ActionType() string         { return ActionCombatStart }
func (CombatEnemyRoll) ActionType() string     { return ActionCombatEnemyRoll }
func (CombatSelectAbility) ActionType() string { return ActionCombatSelectAbility }
func (CombatSelectEnemy) ActionType() string   { return ActionCombatSelectEnemy }
func (CombatUseAbility) ActionType() string    { return ActionCombatUseAbility }
func (CombatResolve) ActionType() string       { return ActionCombatResolve }
func (CombatEnd) ActionType() string           { return ActionCombatEnd }
