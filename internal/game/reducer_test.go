package game

import (
	"strings"
	"testing"

	"github.com/mjguillemette/hollowroom/internal/combat"
	"github.com/mjguillemette/hollowroom/internal/rules"
	"github.com/mjguillemette/hollowroom/internal/scoring"
	"github.com/mjguillemette/hollowroom/internal/transform"
)

func newTestReducer() *Reducer {
	return &Reducer{
		Rules: rules.Default(),
		Roll:  func(sides int) int { return 1 },
		Warnf: func(string, ...any) {},
	}
}

// startRun dispatches the opening sequence and leaves the state in idle.
func startRun(t *testing.T, r *Reducer) State {
	t.Helper()
	s := New(r.Rules)
	s = r.Reduce(s, StartGame{})
	if s.Phase != PhaseItemSelection {
		t.Fatalf("phase after START_GAME = %s, want %s", s.Phase, PhaseItemSelection)
	}
	s = r.Reduce(s, ItemSelected{})
	if s.Phase != PhaseIdle {
		t.Fatalf("phase after ITEM_SELECTED = %s, want %s", s.Phase, PhaseIdle)
	}
	return s
}

// playRound throws, settles the given dice, and completes the round
// successfully.
func playRound(t *testing.T, r *Reducer, s State, values []int) State {
	t.Helper()
	s = r.Reduce(s, ThrowDice{})
	s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: values}})
	return r.Reduce(s, SuccessfulRoll{})
}

// TestEndToEndScenario walks the canonical opening: start, pick an item,
// throw, settle a triple, complete the round.
func TestEndToEndScenario(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)

	s = r.Reduce(s, ThrowDice{})
	if s.Phase != PhaseThrowing {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseThrowing)
	}
	s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{3, 3, 3, 5, 5}, Total: 19}})
	if s.Phase != PhaseSettled {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseSettled)
	}

	checks := []struct {
		category scoring.Category
		achieved bool
		score    int
	}{
		{scoring.CategoryThreeOfKind, true, 9},
		{scoring.CategoryTwoPair, false, 0},
		{scoring.CategoryHighestTotal, true, 19},
	}
	for _, check := range checks {
		entry := sheetEntry(t, s.Scoring.Current, check.category)
		if entry.Achieved != check.achieved || entry.Score != check.score {
			t.Fatalf("%s = (%t, %d), want (%t, %d)",
				check.category, entry.Achieved, entry.Score, check.achieved, check.score)
		}
	}

	s = r.Reduce(s, SuccessfulRoll{})
	if s.CurrentAttempts != 0 {
		t.Fatalf("current attempts = %d, want 0", s.CurrentAttempts)
	}
	if s.SuccessfulRolls != 1 {
		t.Fatalf("successful rolls = %d, want 1", s.SuccessfulRolls)
	}
	if s.Phase != PhaseIdle {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseIdle)
	}
}

// TestCorruptionClamp ensures corruption never exceeds 1.0 and that hitting
// the ceiling ends the game.
func TestCorruptionClamp(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)
	s.Corruption = 0.98

	zero := 0.0
	for i := 0; i < 50; i++ {
		s = r.Reduce(s, ThrowDice{CorruptionPerRoll: &zero})
		if s.Corruption > 1 {
			t.Fatalf("corruption = %v, want <= 1", s.Corruption)
		}
		if s.GameOver {
			t.Fatal("game over with zero per-roll corruption")
		}
		s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{1}}})
		s = r.Reduce(s, SuccessfulRoll{})
		if s.Phase == PhaseItemSelection {
			s = r.Reduce(s, ItemSelected{})
		}
	}
	if s.Corruption != 0.98 {
		t.Fatalf("corruption = %v, want 0.98 untouched", s.Corruption)
	}

	// Default per-throw corruption eventually pins the meter at 1.0.
	for !s.GameOver {
		s = r.Reduce(s, ThrowDice{})
		if s.Phase == PhaseThrowing {
			s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{1}}})
			s = r.Reduce(s, SuccessfulRoll{})
			if s.Phase == PhaseItemSelection {
				s = r.Reduce(s, ItemSelected{})
			}
		}
	}
	if s.Corruption != 1 {
		t.Fatalf("corruption at game over = %v, want 1", s.Corruption)
	}
	if s.Phase != PhaseMenu {
		t.Fatalf("phase at game over = %s, want %s", s.Phase, PhaseMenu)
	}
}

// TestTimeAdvancesEveryThirdRound ensures the period clock ticks every three
// completed rounds.
func TestTimeAdvancesEveryThirdRound(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)

	s = playRound(t, r, s, []int{2, 3})
	s = playRound(t, r, s, []int{2, 3})
	if s.TimeOfDay != Morning {
		t.Fatalf("time of day after 2 rounds = %s, want %s", s.TimeOfDay, Morning)
	}
	s = playRound(t, r, s, []int{2, 3})
	if s.TimeOfDay != Midday {
		t.Fatalf("time of day after 3 rounds = %s, want %s", s.TimeOfDay, Midday)
	}
	if len(s.Scoring.Historical[Morning]) != len(scoring.Categories) {
		t.Fatal("morning sheet not archived at period boundary")
	}
	if sheetEntry(t, s.Scoring.Current, scoring.CategoryHighestTotal).Achieved {
		t.Fatal("sheet not reset at period boundary")
	}
}

// TestDayBoundaryReset ensures crossing night into morning resets the sheet
// and the daily economy and grows the target.
func TestDayBoundaryReset(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)

	for round := 0; round < 9; round++ {
		s = playRound(t, r, s, []int{6, 6, 6, 6, 6})
		if s.Phase == PhaseItemSelection {
			break
		}
	}

	if s.TimeOfDay != Morning {
		t.Fatalf("time of day = %s, want %s", s.TimeOfDay, Morning)
	}
	if s.DaysMarked != 2 {
		t.Fatalf("days marked = %d, want 2", s.DaysMarked)
	}
	if s.Phase != PhaseItemSelection {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseItemSelection)
	}
	if s.DailyBestScore != 0 {
		t.Fatalf("daily best = %d, want 0", s.DailyBestScore)
	}
	if want := rules.Default().DailyTarget(2); s.DailyTarget != want {
		t.Fatalf("daily target = %d, want %d", s.DailyTarget, want)
	}
	for _, entry := range s.Scoring.Current {
		if entry.Achieved {
			t.Fatalf("%s still achieved after day reset", entry.Category)
		}
	}
}

// TestDayRolloverRelief ensures beating the target relieves corruption by
// the fractional margin while missing it leaves the meter alone.
func TestDayRolloverRelief(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)
	s.Corruption = 0.5
	s.DailyBestScore = 0

	// 9 rounds of [6,6,6,6,6]: highest_total 30, pair 12, three 18, four 24
	// well past the day-1 target of 30.
	for round := 0; round < 9; round++ {
		s = playRound(t, r, s, []int{6, 6, 6, 6, 6})
		if s.Phase == PhaseItemSelection && s.TimeOfDay == Morning {
			break
		}
		if s.Phase == PhaseItemSelection {
			s = r.Reduce(s, ItemSelected{})
		}
	}

	// Corruption: 0.5 + 9 throws * 0.02 = 0.68, then relief (84-30)/30 = 1.8
	// clamps to zero.
	if s.Corruption != 0 {
		t.Fatalf("corruption after relief = %v, want 0", s.Corruption)
	}

	// A missed target leaves corruption unchanged at rollover.
	missed := startRun(t, r)
	missed.Corruption = 0.5
	for round := 0; round < 9; round++ {
		missed = playRound(t, r, missed, []int{1})
		if missed.Phase == PhaseItemSelection && missed.TimeOfDay == Morning {
			break
		}
		if missed.Phase == PhaseItemSelection {
			missed = r.Reduce(missed, ItemSelected{})
		}
	}
	want := 0.5 + 9*rules.Default().CorruptionPerThrow
	if !closeTo(missed.Corruption, want) {
		t.Fatalf("corruption after missed target = %v, want %v", missed.Corruption, want)
	}
}

// TestAttemptExhaustion ensures a first failed roll allows a retry while the
// second completes the round as an exhausted failure.
func TestAttemptExhaustion(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)

	s = r.Reduce(s, ThrowDice{})
	s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{2, 5}}})
	s = r.Reduce(s, FailedRoll{})
	if s.Phase != PhaseIdle {
		t.Fatalf("phase after first failure = %s, want %s", s.Phase, PhaseIdle)
	}
	if s.CurrentAttempts != 1 {
		t.Fatalf("attempts after first failure = %d, want 1", s.CurrentAttempts)
	}
	if s.SuccessfulRolls != 0 {
		t.Fatalf("rounds after first failure = %d, want 0", s.SuccessfulRolls)
	}

	s = r.Reduce(s, ThrowDice{})
	s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{2, 5}}})
	if s.CurrentAttempts != 2 {
		t.Fatalf("attempts before exhaustion = %d, want 2", s.CurrentAttempts)
	}
	s = r.Reduce(s, FailedRoll{})
	if s.CurrentAttempts != 0 {
		t.Fatalf("attempts after exhaustion = %d, want 0", s.CurrentAttempts)
	}
	if s.SuccessfulRolls != 1 {
		t.Fatalf("rounds after exhaustion = %d, want 1", s.SuccessfulRolls)
	}
	if s.TotalSuccesses != 0 {
		t.Fatalf("total successes = %d, want 0", s.TotalSuccesses)
	}
}

func TestReturnToMenuPreservesLifetimeCounters(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)
	s = playRound(t, r, s, []int{4, 4})

	s = r.Reduce(s, ReturnToMenu{})
	if s.Phase != PhaseMenu {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseMenu)
	}
	if s.TotalAttempts != 1 || s.TotalSuccesses != 1 {
		t.Fatalf("lifetime counters = (%d, %d), want (1, 1)", s.TotalAttempts, s.TotalSuccesses)
	}
	if s.SuccessfulRolls != 0 || s.DaysMarked != 1 {
		t.Fatal("run state not reset by RETURN_TO_MENU")
	}
}

func TestStartGameAfterGameOverResets(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)
	s.GameOver = true
	s.Corruption = 1
	s.Phase = PhaseMenu

	s = r.Reduce(s, StartGame{})
	if s.GameOver {
		t.Fatal("game over flag survived reset")
	}
	if s.Corruption != 0 {
		t.Fatalf("corruption = %v, want 0", s.Corruption)
	}
	if s.Phase != PhaseItemSelection {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseItemSelection)
	}
}

// TestInvalidTransitionsAreNoOps ensures out-of-phase actions leave the
// state untouched.
func TestInvalidTransitionsAreNoOps(t *testing.T) {
	r := newTestReducer()
	warned := 0
	r.Warnf = func(string, ...any) { warned++ }

	s := New(r.Rules)
	before := s
	actions := []Action{
		ThrowDice{},
		DiceSettled{},
		SuccessfulRoll{},
		FailedRoll{},
		ItemSelected{},
		CombatEnemyRoll{},
		CombatUseAbility{},
		CombatResolve{},
	}
	for _, action := range actions {
		s = r.Reduce(s, action)
	}
	if warned != len(actions) {
		t.Fatalf("warnings = %d, want %d", warned, len(actions))
	}
	if s.Phase != before.Phase || s.CurrentAttempts != before.CurrentAttempts || s.SuccessfulRolls != before.SuccessfulRolls {
		t.Fatal("no-op actions mutated state")
	}
}

// TestHighestTotalDrivesPlayerHP ensures a new highest_total record raises
// the HP cap and heals the difference, and that the cap never drops.
func TestHighestTotalDrivesPlayerHP(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)

	s = r.Reduce(s, ThrowDice{})
	s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{6, 6, 6}}})
	if s.Combat.MaxPlayerHP != 18 || s.Combat.PlayerHP != 18 {
		t.Fatalf("player HP = (%d, %d), want (18, 18)", s.Combat.PlayerHP, s.Combat.MaxPlayerHP)
	}

	s = r.Reduce(s, SuccessfulRoll{})
	s = r.Reduce(s, ThrowDice{})
	s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{1, 1}}})
	if s.Combat.MaxPlayerHP != 18 {
		t.Fatalf("max player HP = %d, want 18 (never decreases)", s.Combat.MaxPlayerHP)
	}
}

// TestCombatVictoryBonus ensures victory fast-forwards the round clock by
// the rounds remaining until the next time-of-day change.
func TestCombatVictoryBonus(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)

	// One completed round: two rounds remain until the period changes.
	s = playRound(t, r, s, []int{5, 5, 3})
	if s.SuccessfulRolls != 1 {
		t.Fatalf("successful rolls = %d, want 1", s.SuccessfulRolls)
	}

	// Arm a scoring sheet, then clear the lone enemy and resolve.
	s = r.Reduce(s, ThrowDice{})
	s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{5, 5, 3}, DiceIDs: []int{1, 2, 3}}})
	s = r.Reduce(s, CombatStart{Enemies: []combat.Enemy{{ID: 1, Type: "shade", HP: 4}}})
	s = r.Reduce(s, CombatEnemyRoll{})
	s = r.Reduce(s, CombatSelectAbility{Category: scoring.CategoryPair})
	target := 1
	s = r.Reduce(s, CombatUseAbility{EnemyID: &target})
	if len(s.Combat.Enemies) != 0 {
		t.Fatalf("enemies = %d, want 0", len(s.Combat.Enemies))
	}
	s = r.Reduce(s, CombatResolve{})

	if s.SuccessfulRolls != 3 {
		t.Fatalf("successful rolls after victory = %d, want 3", s.SuccessfulRolls)
	}
	if s.TimeOfDay != Midday {
		t.Fatalf("time of day after victory = %s, want %s", s.TimeOfDay, Midday)
	}
	if s.Combat.Active() {
		t.Fatal("combat still active after victory")
	}
}

// TestCombatDefeatEndsGame ensures losing all HP in combat is terminal.
func TestCombatDefeatEndsGame(t *testing.T) {
	r := newTestReducer()
	r.Roll = func(sides int) int { return sides } // max damage
	s := startRun(t, r)
	s.Combat.PlayerHP = 3

	s = r.Reduce(s, CombatStart{Enemies: []combat.Enemy{{ID: 1, HP: 50}}})
	s = r.Reduce(s, CombatEnemyRoll{})
	s = r.Reduce(s, CombatResolve{})

	if !s.GameOver {
		t.Fatal("expected game over after lethal resolve")
	}
	if s.Phase != PhaseMenu {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseMenu)
	}
	if s.Combat.PlayerHP != 0 {
		t.Fatalf("player HP = %d, want 0", s.Combat.PlayerHP)
	}
}

// TestCombatUseAbilityConsumesDice ensures an ability cannot be reused once
// its backing dice are spent in the same combat round.
func TestCombatUseAbilityConsumesDice(t *testing.T) {
	r := newTestReducer()
	s := startRun(t, r)

	s = r.Reduce(s, ThrowDice{})
	s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{5, 5, 3}, DiceIDs: []int{1, 2, 3}}})
	s = r.Reduce(s, CombatStart{Enemies: []combat.Enemy{{ID: 1, HP: 50}}})
	s = r.Reduce(s, CombatEnemyRoll{})

	target := 1
	s = r.Reduce(s, CombatSelectAbility{Category: scoring.CategoryPair})
	s = r.Reduce(s, CombatUseAbility{EnemyID: &target})
	if s.Combat.Enemies[0].HP != 40 {
		t.Fatalf("enemy HP = %d, want 40", s.Combat.Enemies[0].HP)
	}

	// Second use of the same pair must be rejected: its dice are spent.
	s = r.Reduce(s, CombatSelectAbility{Category: scoring.CategoryPair})
	s = r.Reduce(s, CombatUseAbility{EnemyID: &target})
	if s.Combat.Enemies[0].HP != 40 {
		t.Fatalf("enemy HP after rejected reuse = %d, want 40", s.Combat.Enemies[0].HP)
	}
}

func sheetEntry(t *testing.T, sheet []scoring.CategoryScore, category scoring.Category) scoring.CategoryScore {
	t.Helper()
	for _, entry := range sheet {
		if entry.Category == category {
			return entry
		}
	}
	t.Fatalf("category %s missing from sheet", category)
	return scoring.CategoryScore{}
}

func closeTo(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}

// TestItemSelectionAppliesDiceTransformations covers the item path that
// grants a dice modifier: stacking recomposes effects, and a non-stackable
// duplicate leaves the die unchanged without blocking the selection.
func TestItemSelectionAppliesDiceTransformations(t *testing.T) {
	r := newTestReducer()
	s := New(r.Rules)
	s = r.Reduce(s, StartGame{})

	s = r.Reduce(s, ItemSelected{Transformation: transform.TypeTarotBoost, DiceIDs: []int{0, 1}})
	if s.Phase != PhaseIdle {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseIdle)
	}
	mods, ok := s.DiceModifiers[0]
	if !ok || len(mods.Transformations) != 1 {
		t.Fatalf("die 0 transformations = %+v, want one tarot boost", mods.Transformations)
	}
	if !closeTo(mods.Effects.ScoreMultiplier, 1.2) {
		t.Fatalf("die 0 score multiplier = %v, want 1.2", mods.Effects.ScoreMultiplier)
	}
	if _, ok := s.DiceModifiers[2]; ok {
		t.Fatal("die 2 should have no modifiers")
	}

	// Reach the next item screen by exhausting a day, then stack a second
	// boost on die 0 only.
	for s.Phase != PhaseItemSelection {
		s = playRound(t, r, s, []int{2, 2, 2})
	}
	s = r.Reduce(s, ItemSelected{Transformation: transform.TypeTarotBoost, DiceIDs: []int{0}})
	if got := s.DiceModifiers[0].Effects.ScoreMultiplier; !closeTo(got, 1.44) {
		t.Fatalf("stacked score multiplier = %v, want 1.44", got)
	}
	if got := s.DiceModifiers[1].Effects.ScoreMultiplier; !closeTo(got, 1.2) {
		t.Fatalf("die 1 score multiplier = %v, want unchanged 1.2", got)
	}
}

// TestComboHonorsZeroBonusPreset ensures a preset tuning the combo bonus to
// zero disables the bonus instead of falling back to the shipped 15%.
func TestComboHonorsZeroBonusPreset(t *testing.T) {
	loaded, err := rules.Load(strings.NewReader("combo_bonus: 0\n"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	r := &Reducer{
		Rules: loaded,
		Roll:  func(sides int) int { return 1 },
		Warnf: func(string, ...any) {},
	}
	s := startRun(t, r)

	s = r.Reduce(s, ThrowDice{})
	s = r.Reduce(s, DiceSettled{Roll: scoring.Roll{Values: []int{5, 5, 2}, DiceIDs: []int{1, 2, 3}}})
	s = r.Reduce(s, SuccessfulRoll{})

	s = r.Reduce(s, ThrowDice{})
	s = r.Reduce(s, DiceSettled{
		Roll:        scoring.Roll{Values: []int{5, 5, 3}, DiceIDs: []int{1, 2, 4}},
		ComboActive: true,
	})
	// With the default bonus the repeated pair would merge in at 12.
	if pair := sheetEntry(t, s.Scoring.Current, scoring.CategoryPair); pair.Score != 10 {
		t.Fatalf("pair score with zero combo bonus = %d, want 10", pair.Score)
	}
}

func TestItemSelectionSkipsNonStackableDuplicate(t *testing.T) {
	r := newTestReducer()
	s := New(r.Rules)
	s = r.Reduce(s, StartGame{})
	s = r.Reduce(s, ItemSelected{Transformation: transform.TypeLuckyAsh, DiceIDs: []int{3}})

	for s.Phase != PhaseItemSelection {
		s = playRound(t, r, s, []int{2, 2, 2})
	}
	s = r.Reduce(s, ItemSelected{Transformation: transform.TypeLuckyAsh, DiceIDs: []int{3}})
	if s.Phase != PhaseIdle {
		t.Fatalf("phase = %s, want %s", s.Phase, PhaseIdle)
	}
	if got := len(s.DiceModifiers[3].Transformations); got != 1 {
		t.Fatalf("die 3 transformations = %d, want duplicate skipped", got)
	}
}
