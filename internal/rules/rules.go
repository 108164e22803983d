// Package rules holds the tunable constants of the game loop. The defaults
// match the shipped balance; a YAML preset can override them for tuning runs.
package rules

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mjguillemette/hollowroom/internal/errors"
)

// Rules carries every tunable constant consumed by the reducer and the
// combat resolution logic.
type Rules struct {
	// MaxDays caps the day counter.
	MaxDays int `yaml:"max_days"`
	// RollsPerPeriod is the number of completed rounds per time-of-day period.
	RollsPerPeriod int `yaml:"rolls_per_period"`
	// MaxAttemptsPerRound is the number of attempts before a round is
	// exhausted.
	MaxAttemptsPerRound int `yaml:"max_attempts_per_round"`
	// CorruptionPerThrow is the default corruption added on every throw.
	CorruptionPerThrow float64 `yaml:"corruption_per_throw"`
	// DailyTargetBase and DailyTargetGrowth drive the exponential target
	// curve: floor(base * growth^(day-1)).
	DailyTargetBase   int     `yaml:"daily_target_base"`
	DailyTargetGrowth float64 `yaml:"daily_target_growth"`
	// ComboBonus is the multiplicative score bonus per combo repeat.
	ComboBonus float64 `yaml:"combo_bonus"`
	// StartingPlayerHP seeds combat HP before highest_total raises the cap.
	StartingPlayerHP int `yaml:"starting_player_hp"`
	// EnemyDamageDie is the die rolled for real enemy damage.
	EnemyDamageDie int `yaml:"enemy_damage_die"`
	// EnemyDisplayDie is the die shown on enemy dice for visual variety. It
	// never feeds damage.
	EnemyDisplayDie int `yaml:"enemy_display_die"`
	// VictoryBonusPerRound is the nominal point value of each round skipped
	// by a combat victory.
	VictoryBonusPerRound int `yaml:"victory_bonus_per_round"`
}

// Default returns the shipped balance.
func Default() Rules {
	return Rules{
		MaxDays:              31,
		RollsPerPeriod:       3,
		MaxAttemptsPerRound:  2,
		CorruptionPerThrow:   0.02,
		DailyTargetBase:      30,
		DailyTargetGrowth:    1.5,
		ComboBonus:           0.15,
		StartingPlayerHP:     10,
		EnemyDamageDie:       4,
		EnemyDisplayDie:      6,
		VictoryBonusPerRound: 10,
	}
}

// Load decodes a YAML preset. Fields absent from the document keep their
// default values. Documents that cannot be parsed carry CodeRulesUnreadable;
// documents that parse but break reducer invariants carry CodeRulesInvalid.
func Load(r io.Reader) (Rules, error) {
	rules := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&rules); err != nil {
		return Rules{}, errors.Wrap(errors.CodeRulesUnreadable, "decode rules preset", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, errors.Wrap(errors.CodeRulesInvalid, "invalid rules preset", err)
	}
	return rules, nil
}

// LoadFile reads a YAML preset from disk.
func LoadFile(path string) (Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return Rules{}, errors.Wrap(errors.CodeRulesUnreadable, "open rules preset", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate rejects presets that would break reducer invariants.
func (r Rules) Validate() error {
	if r.MaxDays <= 0 {
		return fmt.Errorf("max_days must be positive, got %d", r.MaxDays)
	}
	if r.RollsPerPeriod <= 0 {
		return fmt.Errorf("rolls_per_period must be positive, got %d", r.RollsPerPeriod)
	}
	if r.MaxAttemptsPerRound <= 0 {
		return fmt.Errorf("max_attempts_per_round must be positive, got %d", r.MaxAttemptsPerRound)
	}
	if r.CorruptionPerThrow < 0 {
		return fmt.Errorf("corruption_per_throw must be non-negative, got %v", r.CorruptionPerThrow)
	}
	if r.DailyTargetBase <= 0 {
		return fmt.Errorf("daily_target_base must be positive, got %d", r.DailyTargetBase)
	}
	if r.DailyTargetGrowth < 1 {
		return fmt.Errorf("daily_target_growth must be at least 1, got %v", r.DailyTargetGrowth)
	}
	if r.ComboBonus < 0 {
		return fmt.Errorf("combo_bonus must be non-negative, got %v", r.ComboBonus)
	}
	if r.StartingPlayerHP <= 0 {
		return fmt.Errorf("starting_player_hp must be positive, got %d", r.StartingPlayerHP)
	}
	if r.EnemyDamageDie <= 0 || r.EnemyDisplayDie <= 0 {
		return fmt.Errorf("enemy dice must have positive sides, got %d and %d", r.EnemyDamageDie, r.EnemyDisplayDie)
	}
	if r.VictoryBonusPerRound < 0 {
		return fmt.Errorf("victory_bonus_per_round must be non-negative, got %d", r.VictoryBonusPerRound)
	}
	return nil
}

// DailyTarget returns the score threshold for the given 1-based day.
func (r Rules) DailyTarget(day int) int {
	if day < 1 {
		day = 1
	}
	target := float64(r.DailyTargetBase)
	for i := 1; i < day; i++ {
		target *= r.DailyTargetGrowth
	}
	return int(target)
}
