// Package calendar fetches participants' busy events from calendar providers.
//
// A Fetcher fans out over participants, consults an injectable Cache, drops
// malformed events and hands back a fully materialised result or an error.
// Providers plug in through Source; Router picks the Source per participant.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"meetslot/internal/models"
	"strings"
	"time"
)

var (
	// ErrNoCredentials means no provider can read the participant's calendar.
	ErrNoCredentials = errors.New("no calendar credentials for participant")
	// ErrProvider wraps failures reported by a calendar provider.
	ErrProvider = errors.New("calendar provider error")
)

// Source reads one participant's events overlapping [from, to).
type Source interface {
	Events(ctx context.Context, participant string, from, to time.Time) ([]models.Event, error)
}

// FetchError ties a fetch failure to the participant whose calendar failed.
type FetchError struct {
	Participant string
	Err         error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch calendar for %s: %v", e.Participant, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Router dispatches each participant to a registered Source, or to the fallback.
type Router struct {
	routes   map[string]Source
	fallback Source
}

// NewRouter creates a Router. fallback may be nil, in which case unrouted
// participants yield ErrNoCredentials.
func NewRouter(fallback Source) *Router {
	return &Router{routes: make(map[string]Source), fallback: fallback}
}

// Route sends participant (matched case-insensitively) to s.
func (r *Router) Route(participant string, s Source) {
	r.routes[strings.ToLower(participant)] = s
}

// Events implements Source.
func (r *Router) Events(ctx context.Context, participant string, from, to time.Time) ([]models.Event, error) {
	if s, ok := r.routes[strings.ToLower(participant)]; ok {
		return s.Events(ctx, participant, from, to)
	}
	if r.fallback == nil {
		return nil, ErrNoCredentials
	}
	return r.fallback.Events(ctx, participant, from, to)
}

// BusyIntervals flattens fetched events into per-participant busy intervals.
func BusyIntervals(events map[string][]models.Event) map[string][]models.Interval {
	out := make(map[string][]models.Interval, len(events))
	for participant, evs := range events {
		busy := make([]models.Interval, 0, len(evs))
		for _, e := range evs {
			busy = append(busy, e.Busy())
		}
		out[participant] = busy
	}
	return out
}
