// Package combat implements the turn-based combat resolution logic layered
// on top of the main game reducer. All functions are pure: they take the
// current combat state and return a new one, never mutating their input.
package combat

import (
	"errors"

	"github.com/mjguillemette/hollowroom/internal/scoring"
)

// Phase is the combat sub-state machine. The zero value means combat is
// inactive. PhaseEnemyRoll and PhaseResolve are transient: EnemyRoll and
// Resolve pass through them within a single action, so a stored state only
// ever holds one of the other four phases.
type Phase string

const (
	PhaseInactive   Phase = ""
	PhaseEnemySpawn Phase = "combat_enemy_spawn"
	PhaseAwaitRoll  Phase = "combat_await_player"
	PhaseEnemyRoll  Phase = "combat_enemy_roll"
	PhasePlayerTurn Phase = "combat_player_turn"
	PhaseResolve    Phase = "combat_resolve"
)

var (
	// ErrNoAbilitySelected indicates an ability use without an armed ability.
	ErrNoAbilitySelected = errors.New("no ability selected")
	// ErrNoTargetSelected indicates an ability use without a target enemy.
	ErrNoTargetSelected = errors.New("no enemy targeted")
	// ErrAbilityNotAchieved indicates the backing score category is not
	// currently achieved.
	ErrAbilityNotAchieved = errors.New("ability category not achieved")
	// ErrEnemyNotFound indicates the targeted enemy is not in the encounter.
	ErrEnemyNotFound = errors.New("enemy not found")
	// ErrDiceAlreadyUsed indicates every die backing the ability was already
	// consumed this combat round.
	ErrDiceAlreadyUsed = errors.New("ability dice already used this round")
)

// Enemy is one combatant in an encounter. It is created with full HP and a
// closed portal; the rendering layer advances the portal and entrance
// progress, the core only stores them.
type Enemy struct {
	ID               int        `json:"id"`
	Type             string     `json:"type"`
	Position         [3]float64 `json:"position"`
	HP               int        `json:"hp"`
	MaxHP            int        `json:"maxHp"`
	PortalProgress   float64    `json:"portalProgress"`
	EntranceProgress float64    `json:"entranceAnimationProgress"`
	// AttackRoll is the real damage roll. DiceValue is display-only visual
	// variety and must never feed damage.
	AttackRoll int `json:"attackRoll,omitempty"`
	DiceValue  int `json:"diceValue,omitempty"`
}

// RollSnapshot is the last dice-settle result, kept so remaining abilities
// can be recomputed from dice not yet consumed this combat round.
type RollSnapshot struct {
	Values           []int     `json:"values"`
	DiceIDs          []int     `json:"diceIds,omitempty"`
	ScoreMultipliers []float64 `json:"scoreMultipliers,omitempty"`
}

// State is the combat sub-state embedded in the game aggregate.
type State struct {
	Phase           Phase            `json:"phase,omitempty"`
	Enemies         []Enemy          `json:"enemies,omitempty"`
	PlayerHP        int              `json:"playerHP"`
	MaxPlayerHP     int              `json:"maxPlayerHP"`
	SelectedAbility scoring.Category `json:"selectedAbility,omitempty"`
	SelectedEnemyID *int             `json:"selectedEnemyId,omitempty"`
	UsedDiceIDs     []int            `json:"usedDiceIds,omitempty"`
	CurrentRoll     *RollSnapshot    `json:"currentDiceRoll,omitempty"`
}

// Active reports whether a combat encounter is in progress.
func (s State) Active() bool {
	return s.Phase != PhaseInactive
}

// Clone returns a deep copy of the combat state.
func (s State) Clone() State {
	out := s
	out.Enemies = append([]Enemy(nil), s.Enemies...)
	out.UsedDiceIDs = append([]int(nil), s.UsedDiceIDs...)
	if s.SelectedEnemyID != nil {
		id := *s.SelectedEnemyID
		out.SelectedEnemyID = &id
	}
	if s.CurrentRoll != nil {
		snapshot := RollSnapshot{
			Values:           append([]int(nil), s.CurrentRoll.Values...),
			DiceIDs:          append([]int(nil), s.CurrentRoll.DiceIDs...),
			ScoreMultipliers: append([]float64(nil), s.CurrentRoll.ScoreMultipliers...),
		}
		out.CurrentRoll = &snapshot
	}
	return out
}

// Start begins an encounter with the given spawn list. Used dice and the roll
// snapshot are cleared; player HP carries over from the previous state.
func Start(s State, enemies []Enemy) State {
	out := s.Clone()
	out.Phase = PhaseEnemySpawn
	out.Enemies = make([]Enemy, len(enemies))
	for i, enemy := range enemies {
		if enemy.MaxHP <= 0 {
			enemy.MaxHP = enemy.HP
		}
		enemy.HP = enemy.MaxHP
		enemy.PortalProgress = 0
		enemy.EntranceProgress = 0
		enemy.AttackRoll = 0
		enemy.DiceValue = 0
		out.Enemies[i] = enemy
	}
	out.SelectedAbility = ""
	out.SelectedEnemyID = nil
	out.UsedDiceIDs = nil
	out.CurrentRoll = nil
	return out
}

// EnemyRoll rolls attack values for every enemy and opens the player turn.
// The damage roll and the displayed die are separate rolls: damage comes from
// the smaller die so visual variety never biases the damage range. Used dice
// reset for the new combat round.
func EnemyRoll(s State, damageDie, displayDie int, roll func(sides int) int) State {
	out := s.Clone()
	for i := range out.Enemies {
		out.Enemies[i].AttackRoll = roll(damageDie)
		out.Enemies[i].DiceValue = roll(displayDie)
	}
	out.UsedDiceIDs = nil
	out.Phase = PhasePlayerTurn
	return out
}

// SelectAbility arms a score category as the pending ability. Selecting a new
// ability clears any previously selected enemy target.
func SelectAbility(s State, category scoring.Category) State {
	out := s.Clone()
	out.SelectedAbility = category
	out.SelectedEnemyID = nil
	return out
}

// SelectEnemy stores the chosen target.
func SelectEnemy(s State, enemyID int) State {
	out := s.Clone()
	out.SelectedEnemyID = &enemyID
	return out
}

// UseAbility resolves the armed ability against a target. The explicit
// enemyID wins over a previously selected target. Damage equals the backing
// category's current score; the category's dice are consumed for the rest of
// the combat round. Enemies reduced to zero HP are removed immediately.
func UseAbility(s State, sheet []scoring.CategoryScore, enemyID *int) (State, error) {
	if s.SelectedAbility == "" {
		return s, ErrNoAbilitySelected
	}
	target := enemyID
	if target == nil {
		target = s.SelectedEnemyID
	}
	if target == nil {
		return s, ErrNoTargetSelected
	}

	var ability *scoring.CategoryScore
	for i := range sheet {
		if sheet[i].Category == s.SelectedAbility {
			ability = &sheet[i]
			break
		}
	}
	if ability == nil || !ability.Achieved {
		return s, ErrAbilityNotAchieved
	}
	if len(ability.DiceIDs) > 0 && allUsed(ability.DiceIDs, s.UsedDiceIDs) {
		return s, ErrDiceAlreadyUsed
	}

	out := s.Clone()
	found := false
	survivors := out.Enemies[:0]
	for _, enemy := range out.Enemies {
		if enemy.ID == *target {
			found = true
			enemy.HP = max(enemy.HP-ability.Score, 0)
			if enemy.HP <= 0 {
				continue
			}
		}
		survivors = append(survivors, enemy)
	}
	if !found {
		return s, ErrEnemyNotFound
	}
	out.Enemies = survivors
	out.UsedDiceIDs = append(out.UsedDiceIDs, ability.DiceIDs...)
	out.SelectedAbility = ""
	out.SelectedEnemyID = nil
	return out, nil
}

// Outcome is the result of resolving a combat round.
type Outcome int

const (
	// OutcomeOngoing means enemies survive and the player awaits the next
	// dice throw.
	OutcomeOngoing Outcome = iota
	// OutcomeVictory means no enemies remain.
	OutcomeVictory
	// OutcomeDefeat means the player's HP reached zero.
	OutcomeDefeat
)

// Resolve applies the attack rolls of all surviving enemies to the player.
// Enemies defeated earlier in the round contribute nothing.
func Resolve(s State) (State, Outcome) {
	out := s.Clone()
	damage := 0
	for _, enemy := range out.Enemies {
		damage += enemy.AttackRoll
	}
	out.PlayerHP = max(out.PlayerHP-damage, 0)

	switch {
	case out.PlayerHP <= 0:
		out.Phase = PhaseInactive
		return out, OutcomeDefeat
	case len(out.Enemies) == 0:
		out.Phase = PhaseInactive
		return out, OutcomeVictory
	default:
		out.Phase = PhaseAwaitRoll
		return out, OutcomeOngoing
	}
}

// End hard-resets the combat sub-state, preserving only player HP and its
// cap.
func End(s State) State {
	return State{
		PlayerHP:    s.PlayerHP,
		MaxPlayerHP: s.MaxPlayerHP,
	}
}

// Available lists the categories currently usable as abilities: achieved
// entries whose backing dice have not all been consumed this combat round.
func Available(sheet []scoring.CategoryScore, usedDiceIDs []int) []scoring.Category {
	var available []scoring.Category
	for _, entry := range sheet {
		if !entry.Achieved {
			continue
		}
		if len(entry.DiceIDs) > 0 && allUsed(entry.DiceIDs, usedDiceIDs) {
			continue
		}
		available = append(available, entry.Category)
	}
	return available
}

func allUsed(ids, used []int) bool {
	seen := make(map[int]struct{}, len(used))
	for _, id := range used {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	return true
}
