package game

import "github.com/mjguillemette/hollowroom/internal/scoring"

// completeRound closes a round from either branch: success (all dice in the
// receptacle) or exhausted failure. Both count toward the round clock; only
// the success bookkeeping differs.
func (r *Reducer) completeRound(s *State, success bool, cigaretteBonus float64) {
	s.SuccessfulRolls++
	s.CurrentAttempts = 0
	if success {
		s.TotalSuccesses++
		if cigaretteBonus > 0 {
			s.Corruption = clamp01(s.Corruption - cigaretteBonus)
		}
	}
	s.Phase = PhaseIdle
	if s.SuccessfulRolls%r.Rules.RollsPerPeriod == 0 {
		r.advancePeriod(s)
	}
}

// advancePeriod moves the time-of-day clock forward one period, archiving
// the finished period's sheet. A night-to-morning transition completes the
// day.
func (r *Reducer) advancePeriod(s *State) {
	endedAtNight := s.TimeOfDay == Night
	s.TimeOfDay = s.TimeOfDay.Next()
	stashPeriod(s)
	if endedAtNight {
		r.rolloverDay(s)
	}
}

// stashPeriod archives the current sheet under the period it was scored in
// and starts a fresh sheet for the current time of day.
func stashPeriod(s *State) {
	if s.Scoring.Historical == nil {
		s.Scoring.Historical = make(map[TimeOfDay][]scoring.CategoryScore)
	}
	s.Scoring.Historical[s.Scoring.CurrentTimeOfDay] = s.Scoring.Current
	s.Scoring.Current = scoring.EmptyScores()
	s.Scoring.CurrentTimeOfDay = s.TimeOfDay
}

// rolloverDay settles the daily target economy at the night-to-morning
// boundary. Meeting the target relieves corruption by the fractional margin
// (best - target) / target; missing it changes nothing here, since the cost
// was already paid per throw. The new target then grows exponentially.
func (r *Reducer) rolloverDay(s *State) {
	if s.DailyBestScore >= s.DailyTarget && s.DailyTarget > 0 {
		relief := float64(s.DailyBestScore-s.DailyTarget) / float64(s.DailyTarget)
		s.Corruption = clamp01(s.Corruption - relief)
	}

	if s.DaysMarked < r.Rules.MaxDays {
		s.DaysMarked++
	}
	s.DailyTarget = r.Rules.DailyTarget(s.DaysMarked)
	s.DailyBestScore = 0
	s.Phase = PhaseItemSelection
}
