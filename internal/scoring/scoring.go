// Package scoring classifies settled dice rolls into the nine fixed scoring
// categories and maintains best-of-period score sheets.
package scoring

import (
	"math"
	"sort"
)

// DefaultComboBonus is the multiplicative bonus added per combo repeat when
// no explicit bonus is configured.
const DefaultComboBonus = 0.15

// Roll carries the face values of all dice that settled inside the scoring
// receptacle for a single throw. Dice that landed outside the receptacle must
// be excluded by the caller before a Roll is built; the engine scores every
// die it is given.
type Roll struct {
	Values           []int     `json:"values"`
	Total            int       `json:"total"`
	DiceIDs          []int     `json:"diceIds,omitempty"`
	ScoreMultipliers []float64 `json:"scoreMultipliers,omitempty"`
}

// CategoryScore is the scored result for a single category.
//
// Invariant: Achieved == false implies Score == 0 and empty DiceValues.
type CategoryScore struct {
	Category             Category  `json:"category"`
	Score                int       `json:"score"`
	Achieved             bool      `json:"achieved"`
	DiceValues           []int     `json:"diceValues,omitempty"`
	DiceIDs              []int     `json:"diceIds,omitempty"`
	ScoreMultipliers     []float64 `json:"scoreMultipliers,omitempty"`
	ComboCount           int       `json:"comboCount,omitempty"`
	MultiScoreMultiplier float64   `json:"multiScoreMultiplier,omitempty"`
	LastUpdatedAttempt   int       `json:"lastUpdatedAttempt,omitempty"`
}

// EmptyScores returns a fresh sheet with all nine categories zeroed and
// unachieved, in canonical order.
func EmptyScores() []CategoryScore {
	sheet := make([]CategoryScore, len(Categories))
	for i, category := range Categories {
		sheet[i] = CategoryScore{Category: category}
	}
	return sheet
}

// CloneScores returns a deep copy of a score sheet.
func CloneScores(sheet []CategoryScore) []CategoryScore {
	if sheet == nil {
		return nil
	}
	out := make([]CategoryScore, len(sheet))
	for i, entry := range sheet {
		out[i] = entry
		out[i].DiceValues = append([]int(nil), entry.DiceValues...)
		out[i].DiceIDs = append([]int(nil), entry.DiceIDs...)
		out[i].ScoreMultipliers = append([]float64(nil), entry.ScoreMultipliers...)
	}
	return out
}

// Input describes a single throw to classify.
type Input struct {
	Roll        Roll
	Attempt     int
	Previous    []CategoryScore
	ComboActive bool
	// ComboBonus overrides the bonus applied per combo repeat. Nil keeps
	// DefaultComboBonus; a present zero disables the bonus entirely.
	ComboBonus *float64
}

// Calculate classifies a settled roll into the nine fixed categories.
//
// # Categories
//
// Every category is evaluated independently; a single throw can satisfy
// several at once, each contributing its own score. Run categories are
// exact-length: the longest strictly-consecutive run of distinct values
// achieves only the category matching its length, never shorter runs.
//
// # Combos
//
// When Input.ComboActive is set and a category achieved by this throw was
// also achieved in Input.Previous with overlapping dice, the combo counter
// for that category increments and a multiplicative bonus of ComboBonus per
// repeat is applied to the score.
//
// Calculate never fails: an empty roll yields all categories unachieved with
// a zero highest total.
func Calculate(in Input) []CategoryScore {
	if len(in.Roll.Values) == 0 {
		return EmptyScores()
	}

	bonus := DefaultComboBonus
	if in.ComboBonus != nil {
		bonus = *in.ComboBonus
	}

	tally := tallyRoll(in.Roll)
	sheet := EmptyScores()
	for i := range sheet {
		scoreCategory(&sheet[i], in.Roll, tally)
		if sheet[i].Achieved {
			sheet[i].LastUpdatedAttempt = in.Attempt
			applyCombo(&sheet[i], in, bonus)
		}
	}
	return sheet
}

// MergeBest merges a freshly calculated sheet into the stored best sheet for
// the current time-of-day period. For each category the new result wins only
// when its score is strictly higher, or when the stored entry was not yet
// achieved and the new one is. The merge is a per-category high-water mark:
// scores never decrease and Achieved never flips back to false.
func MergeBest(best, latest []CategoryScore) []CategoryScore {
	stored := indexByCategory(best)
	merged := make([]CategoryScore, 0, len(Categories))
	for _, category := range Categories {
		current, ok := stored[category]
		incoming, found := lookup(latest, category)
		switch {
		case !ok:
			merged = append(merged, orEmpty(incoming, found, category))
		case found && (incoming.Score > current.Score || (!current.Achieved && incoming.Achieved)):
			merged = append(merged, incoming)
		default:
			merged = append(merged, current)
		}
	}
	return merged
}

// AchievedTotal sums the scores of all achieved categories in a sheet. It is
// the cumulative bucket score compared against the daily target.
func AchievedTotal(sheet []CategoryScore) int {
	total := 0
	for _, entry := range sheet {
		if entry.Achieved {
			total += entry.Score
		}
	}
	return total
}

// rollTally is the per-value breakdown of a roll.
type rollTally struct {
	counts map[int]int
	ids    map[int][]int
	values []int // distinct values, ascending
}

func tallyRoll(roll Roll) rollTally {
	tally := rollTally{
		counts: make(map[int]int),
		ids:    make(map[int][]int),
	}
	for i, value := range roll.Values {
		if tally.counts[value] == 0 {
			tally.values = append(tally.values, value)
		}
		tally.counts[value]++
		if i < len(roll.DiceIDs) {
			tally.ids[value] = append(tally.ids[value], roll.DiceIDs[i])
		}
	}
	sort.Ints(tally.values)
	return tally
}

func scoreCategory(entry *CategoryScore, roll Roll, tally rollTally) {
	switch entry.Category {
	case CategoryHighestTotal:
		scoreHighestTotal(entry, roll)
	case CategoryPair:
		scoreKind(entry, tally, 2)
	case CategoryTwoPair:
		scoreTwoPair(entry, tally)
	case CategoryThreeOfKind:
		scoreKind(entry, tally, 3)
	case CategoryFourOfKind:
		scoreKind(entry, tally, 4)
	case CategoryRunOf3, CategoryRunOf4, CategoryRunOf5, CategoryRunOf6:
		scoreRun(entry, tally)
	}
}

// scoreHighestTotal is always achieved for a non-empty roll. Per-die score
// multipliers weight the sum; a missing multiplier counts as 1.
func scoreHighestTotal(entry *CategoryScore, roll Roll) {
	weighted := 0.0
	for i, value := range roll.Values {
		multiplier := 1.0
		if i < len(roll.ScoreMultipliers) {
			multiplier = roll.ScoreMultipliers[i]
		}
		weighted += float64(value) * multiplier
	}
	entry.Achieved = true
	entry.Score = int(math.Round(weighted))
	entry.DiceValues = append([]int(nil), roll.Values...)
	entry.DiceIDs = append([]int(nil), roll.DiceIDs...)
	entry.ScoreMultipliers = append([]float64(nil), roll.ScoreMultipliers...)
}

// scoreKind scores pair / three of a kind / four of a kind: the highest value
// appearing at least size times, worth value times size.
func scoreKind(entry *CategoryScore, tally rollTally, size int) {
	best := 0
	for _, value := range tally.values {
		if tally.counts[value] >= size {
			best = value
		}
	}
	if best == 0 {
		return
	}
	entry.Achieved = true
	entry.Score = best * size
	for i := 0; i < size; i++ {
		entry.DiceValues = append(entry.DiceValues, best)
	}
	entry.DiceIDs = idsFor(tally, best, size)
}

// scoreTwoPair requires two distinct values each appearing exactly twice.
// A value appearing three or more times forms a kind, not a pair, so a roll
// like [3,3,3,5,5] holds only one pair value and does not score two pair.
func scoreTwoPair(entry *CategoryScore, tally rollTally) {
	var pairs []int
	for _, value := range tally.values {
		if tally.counts[value] == 2 {
			pairs = append(pairs, value)
		}
	}
	if len(pairs) < 2 {
		return
	}
	// Ties prefer the two highest pair values.
	high := pairs[len(pairs)-1]
	low := pairs[len(pairs)-2]
	entry.Achieved = true
	entry.Score = (high + low) * 2
	entry.DiceValues = []int{low, low, high, high}
	entry.DiceIDs = append(idsFor(tally, low, 2), idsFor(tally, high, 2)...)
}

// scoreRun achieves a run category only when the longest strictly-consecutive
// run of distinct values matches its exact length. Equal-length runs prefer
// the higher values.
func scoreRun(entry *CategoryScore, tally rollTally) {
	required := entry.Category.runLength()
	start, length := longestRun(tally.values)
	if length != required {
		return
	}
	entry.Achieved = true
	for i := 0; i < length; i++ {
		value := tally.values[start+i]
		entry.Score += value
		entry.DiceValues = append(entry.DiceValues, value)
		entry.DiceIDs = append(entry.DiceIDs, idsFor(tally, value, 1)...)
	}
}

// longestRun returns the start index and length of the longest strictly
// consecutive run within ascending distinct values. Later (higher) runs win
// ties.
func longestRun(values []int) (start, length int) {
	if len(values) == 0 {
		return 0, 0
	}
	bestStart, bestLen := 0, 1
	runStart, runLen := 0, 1
	for i := 1; i < len(values); i++ {
		if values[i] == values[i-1]+1 {
			runLen++
		} else {
			runStart, runLen = i, 1
		}
		if runLen >= bestLen {
			bestStart, bestLen = runStart, runLen
		}
	}
	return bestStart, bestLen
}

// applyCombo extends a combo streak when the same category was achieved in
// the previous sheet with at least one of the same physical dice.
func applyCombo(entry *CategoryScore, in Input, bonus float64) {
	if !in.ComboActive {
		return
	}
	previous, ok := lookup(in.Previous, entry.Category)
	if !ok || !previous.Achieved || !overlaps(entry.DiceIDs, previous.DiceIDs) {
		return
	}
	entry.ComboCount = previous.ComboCount + 1
	entry.MultiScoreMultiplier = 1 + bonus*float64(entry.ComboCount)
	entry.Score = int(math.Round(float64(entry.Score) * entry.MultiScoreMultiplier))
}

func idsFor(tally rollTally, value, count int) []int {
	ids := tally.ids[value]
	if len(ids) > count {
		ids = ids[:count]
	}
	return append([]int(nil), ids...)
}

func overlaps(a, b []int) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	seen := make(map[int]struct{}, len(a))
	for _, id := range a {
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; ok {
			return true
		}
	}
	return false
}

func indexByCategory(sheet []CategoryScore) map[Category]CategoryScore {
	index := make(map[Category]CategoryScore, len(sheet))
	for _, entry := range sheet {
		index[entry.Category] = entry
	}
	return index
}

func lookup(sheet []CategoryScore, category Category) (CategoryScore, bool) {
	for _, entry := range sheet {
		if entry.Category == category {
			return entry, true
		}
	}
	return CategoryScore{}, false
}

func orEmpty(entry CategoryScore, found bool, category Category) CategoryScore {
	if found {
		return entry
	}
	return CategoryScore{Category: category}
}
