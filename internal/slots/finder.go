package slots

import (
	"errors"
	"fmt"
	"meetslot/internal/models"
	"time"
)

var (
	ErrInvalidDuration   = errors.New("invalid meeting duration")
	ErrMalformedInterval = errors.New("malformed busy interval")
	ErrMissingNow        = errors.New("current instant not provided")
	ErrInvalidPolicy     = errors.New("invalid slot policy")
)

// Request is a single scheduling computation.
type Request struct {
	// Busy maps a participant identifier to that participant's busy intervals.
	Busy            map[string][]models.Interval
	DurationMinutes int
	// Weekday is an optional full weekday name; unknown names are ignored.
	Weekday string
	Urgent  bool
	// Now pins the clock for the whole computation.
	Now time.Time
}

// Result is the outcome of Find. Found is false when no slot fits; that is a
// normal outcome, not an error.
type Result struct {
	Found      bool
	Slot       models.Slot
	Score      int
	Window     models.Interval
	Merged     []models.Interval
	Candidates int
}

// Finder runs the slot search under a Policy.
type Finder struct {
	Policy Policy
}

// NewFinder creates a Finder for the given policy.
func NewFinder(p Policy) *Finder {
	return &Finder{Policy: p}
}

// Find pools every participant's busy intervals, merges them, enumerates the
// free slots of the search window and selects the best one.
func (f *Finder) Find(req Request) (Result, error) {
	if req.Now.IsZero() {
		return Result{}, ErrMissingNow
	}
	if f.Policy.Step <= 0 {
		return Result{}, fmt.Errorf("%w: step must be positive, got %s", ErrInvalidPolicy, f.Policy.Step)
	}
	d := time.Duration(req.DurationMinutes) * time.Minute
	if req.DurationMinutes <= 0 || (f.Policy.MaxDuration > 0 && d > f.Policy.MaxDuration) {
		return Result{}, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, req.DurationMinutes)
	}

	var pooled []models.Interval
	for participant, intervals := range req.Busy {
		for _, iv := range intervals {
			if !iv.Start.Before(iv.End) {
				return Result{}, fmt.Errorf("%w: participant %s has [%s, %s)", ErrMalformedInterval,
					participant, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
			}
			pooled = append(pooled, iv)
		}
	}

	window := f.Policy.Window(req.Now, req.Urgent, req.Weekday)
	merged := Merge(pooled)
	candidates := f.Policy.Enumerate(window, merged, d)

	res := Result{Window: window, Merged: merged, Candidates: len(candidates)}
	best, ok := f.Policy.Select(candidates, req.Urgent, req.Now)
	if !ok {
		return res, nil
	}
	res.Found = true
	res.Slot = best.Slot
	res.Score = best.Score
	return res, nil
}
