package slots_test

import (
	"meetslot/internal/models"
	"meetslot/internal/slots"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScore_Routine(t *testing.T) {
	policy := slots.DefaultPolicy(time.UTC)
	now := at(0, 0)

	tests := map[string]struct {
		hour     int
		expected int
	}{
		"EarlyMorning":  {hour: 7, expected: 70},
		"EightOClock":   {hour: 8, expected: 70},
		"BusinessStart": {hour: 9, expected: 120},
		"OptimalTen":    {hour: 10, expected: 130},
		"OptimalEleven": {hour: 11, expected: 130},
		"LunchNoon":     {hour: 12, expected: 110},
		"LunchOne":      {hour: 13, expected: 110},
		"OptimalTwo":    {hour: 14, expected: 130},
		"OptimalFour":   {hour: 16, expected: 130},
		"BusinessEnd":   {hour: 17, expected: 120},
		"Evening":       {hour: 18, expected: 70},
		"LateNight":     {hour: 23, expected: 70},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s := models.Slot{Start: at(tc.hour, 15), End: at(tc.hour, 45)}
			assert.Equal(t, tc.expected, policy.Score(s, false, now))
		})
	}
}

func TestScore_RoutineUsesPolicyZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)
	policy := slots.DefaultPolicy(ist)

	// 04:30 UTC is 10:00 IST, an optimal hour.
	s := models.Slot{Start: at(4, 30), End: at(5, 0)}

	assert.Equal(t, 130, policy.Score(s, false, at(0, 0)))
}

func TestScore_Urgent(t *testing.T) {
	policy := slots.DefaultPolicy(time.UTC)
	now := at(8, 0)

	tests := map[string]struct {
		offset   time.Duration
		expected int
	}{
		"Now":                {offset: 0, expected: 1000},
		"InThePast":          {offset: -40 * time.Minute, expected: 1000},
		"FifteenMinutes":     {offset: 15 * time.Minute, expected: 995},
		"NinetyMinutes":      {offset: 90 * time.Minute, expected: 970},
		"TwoHoursTenMinutes": {offset: 2*time.Hour + 10*time.Minute, expected: 957},
		"JustInsideHorizon":  {offset: 47*time.Hour + 45*time.Minute, expected: 45},
		"AtHorizon":          {offset: 48 * time.Hour, expected: 50},
		"BeyondHorizon":      {offset: 72 * time.Hour, expected: 50},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			start := now.Add(tc.offset)
			s := models.Slot{Start: start, End: start.Add(30 * time.Minute)}
			assert.Equal(t, tc.expected, policy.Score(s, true, now))
		})
	}
}

func TestScore_UrgentMonotonic(t *testing.T) {
	policy := slots.DefaultPolicy(time.UTC)
	now := at(8, 7)
	window := policy.Window(now, true, "")

	candidates := policy.Enumerate(window, nil, 30*time.Minute)

	prev := policy.Score(candidates[0], true, now)
	for _, c := range candidates[1:] {
		if c.Start.Sub(now) >= policy.UrgentHorizon {
			break
		}
		score := policy.Score(c, true, now)
		assert.LessOrEqual(t, score, prev, "candidate %s", c.Start)
		prev = score
	}
}

func TestSelect(t *testing.T) {
	policy := slots.DefaultPolicy(time.UTC)
	now := at(0, 0)

	t.Run("Empty", func(t *testing.T) {
		_, ok := policy.Select(nil, false, now)
		assert.False(t, ok)
	})

	t.Run("TieKeepsEarliest", func(t *testing.T) {
		candidates := []models.Slot{
			{Start: at(9, 0), End: at(9, 30)},
			{Start: at(9, 15), End: at(9, 45)},
		}
		best, ok := policy.Select(candidates, false, now)
		assert.True(t, ok)
		assert.Equal(t, at(9, 0), best.Slot.Start)
		assert.Equal(t, 120, best.Score)
	})

	t.Run("StrictlyGreaterReplaces", func(t *testing.T) {
		candidates := []models.Slot{
			{Start: at(8, 30), End: at(9, 0)},
			{Start: at(9, 45), End: at(10, 15)},
			{Start: at(10, 0), End: at(10, 30)},
			{Start: at(14, 0), End: at(14, 30)},
		}
		best, ok := policy.Select(candidates, false, now)
		assert.True(t, ok)
		assert.Equal(t, at(10, 0), best.Slot.Start)
		assert.Equal(t, 130, best.Score)
	})

	t.Run("NegativeScoresStillSelected", func(t *testing.T) {
		harsh := policy
		harsh.RoutineBase = -500
		candidates := []models.Slot{{Start: at(20, 0), End: at(20, 30)}}
		best, ok := harsh.Select(candidates, false, now)
		assert.True(t, ok)
		assert.Equal(t, -530, best.Score)
	})
}
