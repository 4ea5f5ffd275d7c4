// Package slots finds a meeting slot that is free for every participant.
//
// The engine is pure: callers hand it fully materialised busy intervals, a
// duration, an urgency flag, an optional weekday and the current instant, and
// it returns the best candidate or reports that none exists. It never reads the
// clock, performs I/O or logs, so concurrent callers only need their own input.
//
// The pipeline is Window -> Merge -> Enumerate -> Select. Every constant that
// shapes the result (step, horizons, score deltas, working day) lives in Policy.
package slots

import "time"

// HourBand is an inclusive range of hours of the day, e.g. {10, 11}.
type HourBand struct {
	From int
	To   int
}

// Has reports whether hour falls inside the band.
func (b HourBand) Has(hour int) bool {
	return hour >= b.From && hour <= b.To
}

// Policy holds the tunable values of window construction, enumeration and scoring.
type Policy struct {
	// Location is the single reference timezone for windows and hour-of-day scoring.
	Location *time.Location
	// Step is the distance between consecutive candidate starts.
	Step time.Duration
	// MaxDuration bounds the accepted meeting duration.
	MaxDuration time.Duration

	// UrgentWindow is the length of the search window for urgent requests.
	UrgentWindow time.Duration
	// UrgentHorizon is how far ahead the decaying urgent score applies.
	UrgentHorizon      time.Duration
	UrgentBase         int
	UrgentDecayPerHour float64
	UrgentFallback     int

	// DayStartHour and DayEndHour bound the routine search window on the target day.
	DayStartHour int
	DayEndHour   int

	RoutineBase     int
	BusinessHours   HourBand
	BusinessBonus   int
	OffHoursPenalty int
	OptimalBands    []HourBand
	OptimalBonus    int
	LunchBand       HourBand
	LunchPenalty    int
}

// DefaultPolicy returns the standard scheduling policy anchored in loc.
// A nil loc means UTC.
func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{
		Location:    loc,
		Step:        15 * time.Minute,
		MaxDuration: 24 * time.Hour,

		UrgentWindow:       48 * time.Hour,
		UrgentHorizon:      48 * time.Hour,
		UrgentBase:         1000,
		UrgentDecayPerHour: 20,
		UrgentFallback:     50,

		DayStartHour: 9,
		DayEndHour:   18,

		RoutineBase:     100,
		BusinessHours:   HourBand{From: 9, To: 17},
		BusinessBonus:   20,
		OffHoursPenalty: 30,
		OptimalBands:    []HourBand{{From: 10, To: 11}, {From: 14, To: 16}},
		OptimalBonus:    10,
		LunchBand:       HourBand{From: 12, To: 13},
		LunchPenalty:    10,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
