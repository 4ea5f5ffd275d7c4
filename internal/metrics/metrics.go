// Package metrics provides Prometheus metrics for the meeting assistant.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the application.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// =============================================================================
// Scheduling outcomes
// =============================================================================

// RequestsTotal counts meeting requests by outcome reason (scheduled, no_availability, ...).
var RequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "assistant",
	Name:      "requests_total",
	Help:      "Meeting requests processed, by outcome",
}, []string{"outcome"})

// CandidatesPerRequest tracks how many free slots were enumerated per request.
var CandidatesPerRequest = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "scheduler",
	Name:      "candidates",
	Help:      "Candidate slots enumerated per scheduling run",
	Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
})

// StageDurationSeconds tracks time spent in parse, fetch and schedule stages.
var StageDurationSeconds = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "assistant",
	Name:      "stage_duration_seconds",
	Help:      "Time spent per request stage",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
}, []string{"stage"})

// =============================================================================
// Collaborators
// =============================================================================

// CalendarFetchTotal counts calendar fetches per source and result.
var CalendarFetchTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "calendar",
	Name:      "fetch_total",
	Help:      "Calendar fetches by result (hit, miss, error)",
}, []string{"result"})

// CalendarEventsDropped counts provider events rejected as malformed.
var CalendarEventsDropped = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "calendar",
	Name:      "events_dropped_total",
	Help:      "Events dropped because their times were missing or inverted",
})

// ExtractionFallbackTotal counts calls to the text-understanding fallback by result.
var ExtractionFallbackTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "extract",
	Name:      "fallback_total",
	Help:      "Fallback text-understanding calls by result",
}, []string{"result"})
