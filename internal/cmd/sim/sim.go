// Package sim parses simulator flags and runs headless random games,
// reporting how runs end and how long they last.
package sim

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/mjguillemette/hollowroom/internal/combat"
	"github.com/mjguillemette/hollowroom/internal/game"
	entrypoint "github.com/mjguillemette/hollowroom/internal/platform/cmd"
	"github.com/mjguillemette/hollowroom/internal/rules"
	"github.com/mjguillemette/hollowroom/internal/scoring"
	"github.com/mjguillemette/hollowroom/internal/server/random"
)

// Config holds simulator command configuration.
type Config struct {
	Games     int    `env:"HOLLOWROOM_SIM_GAMES" envDefault:"100"`
	Seed      int64  `env:"HOLLOWROOM_SIM_SEED"`
	RulesPath string `env:"HOLLOWROOM_SIM_RULES_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Games, "games", cfg.Games, "Number of games to simulate")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (0 picks one)")
	fs.StringVar(&cfg.RulesPath, "rules", cfg.RulesPath, "Path to a YAML rules preset (defaults built in)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Outcome classifies how a simulated run ended.
type Outcome string

const (
	OutcomeCorruption Outcome = "corruption"
	OutcomeCombat     Outcome = "combat"
	OutcomeSurvived   Outcome = "survived"
)

// Result summarizes one simulated game.
type Result struct {
	Outcome Outcome
	Days    int
	Rounds  int
}

// Summary aggregates results across games.
type Summary struct {
	Games       int
	ByOutcome   map[Outcome]int
	TotalDays   int
	TotalRounds int
}

// Run simulates cfg.Games random games and writes a summary to stdout.
func Run(ctx context.Context, cfg Config) error {
	r := rules.Default()
	if cfg.RulesPath != "" {
		loaded, err := rules.LoadFile(cfg.RulesPath)
		if err != nil {
			return err
		}
		r = loaded
	}

	seed := cfg.Seed
	if seed == 0 {
		generated, err := random.NewSeed()
		if err != nil {
			return err
		}
		seed = generated
	}

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSim, func(ctx context.Context) error {
		summary, err := Simulate(ctx, r, seed, cfg.Games)
		if err != nil {
			return err
		}
		return writeSummary(os.Stdout, seed, summary)
	})
}

// Simulate plays count games with a deterministic policy driven by seed.
func Simulate(ctx context.Context, r rules.Rules, seed int64, count int) (Summary, error) {
	summary := Summary{ByOutcome: map[Outcome]int{}}
	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result := playGame(rng, r)
		summary.Games++
		summary.ByOutcome[result.Outcome]++
		summary.TotalDays += result.Days
		summary.TotalRounds += result.Rounds
	}
	return summary, nil
}

// stepLimit bounds a single game so a policy bug cannot loop forever.
const stepLimit = 100000

func playGame(rng *rand.Rand, r rules.Rules) Result {
	reducer := game.NewReducer(r)
	reducer.Roll = func(sides int) int { return rng.Intn(sides) + 1 }
	reducer.Warnf = func(string, ...any) {}

	state := game.New(r)
	state = reducer.Reduce(state, game.StartGame{})

	for step := 0; step < stepLimit; step++ {
		if state.GameOver {
			break
		}
		if state.DaysMarked >= r.MaxDays && state.TimeOfDay == game.Night {
			break
		}
		state = reducer.Reduce(state, nextAction(rng, r, state))
	}

	outcome := OutcomeSurvived
	switch {
	case state.GameOver && state.Combat.PlayerHP <= 0:
		outcome = OutcomeCombat
	case state.GameOver:
		outcome = OutcomeCorruption
	}
	return Result{Outcome: outcome, Days: state.DaysMarked, Rounds: state.SuccessfulRolls}
}

// nextAction picks the next intent for the current state: a throw-settle-score
// loop with occasional encounters, and a greedy ability policy in combat.
func nextAction(rng *rand.Rand, r rules.Rules, state game.State) game.Action {
	if state.Combat.Active() {
		return nextCombatAction(rng, state)
	}

	switch state.Phase {
	case game.PhaseMenu:
		return game.StartGame{}
	case game.PhaseItemSelection:
		return game.ItemSelected{}
	case game.PhaseIdle:
		// Roughly one encounter per day of rounds.
		if rng.Intn(3*r.RollsPerPeriod) == 0 {
			return game.CombatStart{Enemies: spawnEnemies(rng)}
		}
		return game.ThrowDice{}
	case game.PhaseThrowing:
		return game.DiceSettled{Roll: randomRoll(rng)}
	case game.PhaseSettled:
		// Most throws keep every die in the receptacle.
		if rng.Intn(10) == 0 {
			return game.FailedRoll{}
		}
		return game.SuccessfulRoll{}
	default:
		return game.ReturnToMenu{}
	}
}

func nextCombatAction(rng *rand.Rand, state game.State) game.Action {
	switch state.Combat.Phase {
	case combat.PhaseEnemySpawn, combat.PhaseAwaitRoll:
		return game.CombatEnemyRoll{}
	case combat.PhasePlayerTurn:
		available := combat.Available(state.Scoring.Current, state.Combat.UsedDiceIDs)
		if len(available) == 0 || len(state.Combat.Enemies) == 0 {
			return game.CombatResolve{}
		}
		if state.Combat.SelectedAbility == "" {
			return game.CombatSelectAbility{Category: available[rng.Intn(len(available))]}
		}
		target := state.Combat.Enemies[rng.Intn(len(state.Combat.Enemies))].ID
		return game.CombatUseAbility{EnemyID: &target}
	default:
		return game.CombatEnd{}
	}
}

func randomRoll(rng *rand.Rand) scoring.Roll {
	const diceCount = 6
	roll := scoring.Roll{
		Values:  make([]int, diceCount),
		DiceIDs: make([]int, diceCount),
	}
	for i := 0; i < diceCount; i++ {
		roll.Values[i] = rng.Intn(6) + 1
		roll.DiceIDs[i] = i
		roll.Total += roll.Values[i]
	}
	return roll
}

func spawnEnemies(rng *rand.Rand) []combat.Enemy {
	count := rng.Intn(3) + 1
	enemies := make([]combat.Enemy, count)
	for i := range enemies {
		hp := rng.Intn(6) + 3
		enemies[i] = combat.Enemy{ID: i, HP: hp, MaxHP: hp}
	}
	return enemies
}

func writeSummary(w io.Writer, seed int64, s Summary) error {
	avgDays := 0.0
	avgRounds := 0.0
	if s.Games > 0 {
		avgDays = float64(s.TotalDays) / float64(s.Games)
		avgRounds = float64(s.TotalRounds) / float64(s.Games)
	}
	_, err := fmt.Fprintf(w,
		"games: %d (seed %d)\nsurvived: %d\ncorruption deaths: %d\ncombat deaths: %d\navg days: %.1f\navg rounds: %.1f\n",
		s.Games, seed,
		s.ByOutcome[OutcomeSurvived],
		s.ByOutcome[OutcomeCorruption],
		s.ByOutcome[OutcomeCombat],
		avgDays, avgRounds)
	return err
}
