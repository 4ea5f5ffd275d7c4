package slots

import (
	"math"
	"meetslot/internal/models"
	"time"
)

// Score rates a candidate. Higher is better; scores are unbounded.
func (p Policy) Score(s models.Slot, urgent bool, now time.Time) int {
	if urgent {
		h := s.Start.Sub(now).Hours()
		if h < 0 {
			h = 0
		}
		if h < p.UrgentHorizon.Hours() {
			return p.UrgentBase - int(math.Floor(h*p.UrgentDecayPerHour))
		}
		return p.UrgentFallback
	}

	hour := s.Start.In(p.location()).Hour()
	score := p.RoutineBase
	if p.BusinessHours.Has(hour) {
		score += p.BusinessBonus
	} else {
		score -= p.OffHoursPenalty
	}
	for _, band := range p.OptimalBands {
		if band.Has(hour) {
			score += p.OptimalBonus
			break
		}
	}
	if p.LunchBand.Has(hour) {
		score -= p.LunchPenalty
	}
	return score
}

// Select returns the highest scoring candidate. Candidates must be in ascending
// start order; on equal scores the earliest one wins. It reports false when
// there are no candidates.
func (p Policy) Select(candidates []models.Slot, urgent bool, now time.Time) (models.ScoredSlot, bool) {
	var best models.ScoredSlot
	found := false
	for _, c := range candidates {
		score := p.Score(c, urgent, now)
		if !found || score > best.Score {
			best = models.ScoredSlot{Slot: c, Score: score}
			found = true
		}
	}
	return best, found
}
