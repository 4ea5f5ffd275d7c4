// Package extract turns the free text of a meeting request into scheduling
// parameters. A deterministic pattern pass runs first; an Understander
// (language model) is consulted only for the fields it left unresolved.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"meetslot/internal/metrics"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrNoParticipants is returned when neither an organizer nor attendees were given.
	ErrNoParticipants = errors.New("no participants")

	// ErrFallback wraps failures of the Understander.
	ErrFallback = errors.New("fallback extraction failed")
)

// Where a field value came from.
const (
	SourcePattern  = "pattern"
	SourceFallback = "fallback"
	SourceDefault  = "default"
	SourceNone     = "none"
)

// MaxDurationMinutes caps durations accepted from the fallback.
const MaxDurationMinutes = 24 * 60

type durationPattern struct {
	re         *regexp.Regexp
	multiplier int
}

var durationPatterns = []durationPattern{
	{regexp.MustCompile(`(?i)(\d+)\s*(?:min|mins|minute|minutes)\b`), 1},
	{regexp.MustCompile(`(?i)for\s+(\d+)\s+minutes?`), 1},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:hr|hrs|hour|hours)\b`), 60},
}

var urgencyPattern = regexp.MustCompile(`(?i)\b(?:asap|urgent|urgently|immediately|promptly|priority|prioritize|quick|quickly|critical|emergency|rush|fast|rapid|just received|right away|at once)\b`)

type dayPattern struct {
	name string
	re   *regexp.Regexp
}

// Checked in order; the first match wins.
var dayPatterns = []dayPattern{
	{"Monday", regexp.MustCompile(`(?i)\b(?:monday|mon)\b`)},
	{"Tuesday", regexp.MustCompile(`(?i)\b(?:tuesday|tue|tues)\b`)},
	{"Wednesday", regexp.MustCompile(`(?i)\b(?:wednesday|wed)\b`)},
	{"Thursday", regexp.MustCompile(`(?i)\b(?:thursday|thu|thurs)\b`)},
	{"Friday", regexp.MustCompile(`(?i)\b(?:friday|fri)\b`)},
	{"Saturday", regexp.MustCompile(`(?i)\b(?:saturday|sat)\b`)},
	{"Sunday", regexp.MustCompile(`(?i)\b(?:sunday|sun)\b`)},
}

// Extraction is the structured form of a meeting request.
type Extraction struct {
	Participants    []string
	DurationMinutes int
	Weekday         string // capitalised English name, empty when none was found
	Urgent          bool
	Constraints     string
	Sources         map[string]string // field -> Source*
	FallbackErr     error
}

// Extractor runs the two-stage extraction.
type Extractor struct {
	logger          *slog.Logger
	understander    Understander
	defaultDuration int
}

// New creates an Extractor. understander may be nil, in which case only the
// pattern pass runs.
func New(logger *slog.Logger, understander Understander, defaultDuration int) *Extractor {
	if defaultDuration <= 0 {
		defaultDuration = 30
	}
	return &Extractor{logger: logger, understander: understander, defaultDuration: defaultDuration}
}

// Extract derives participants, duration, weekday and urgency from a request.
// Fallback failures never fail the extraction; they are reported in FallbackErr.
func (e *Extractor) Extract(ctx context.Context, content, organizer string, attendees []string) (Extraction, error) {
	participants := Participants(organizer, attendees)
	if len(participants) == 0 {
		return Extraction{}, ErrNoParticipants
	}

	x := Extraction{
		Participants:    participants,
		DurationMinutes: e.defaultDuration,
		Constraints:     content,
		Sources: map[string]string{
			"duration": SourceDefault,
			"weekday":  SourceNone,
			"urgent":   SourceNone,
		},
	}

	if mins, ok := Duration(content); ok {
		x.DurationMinutes = mins
		x.Sources["duration"] = SourcePattern
	}
	if day, ok := Weekday(content); ok {
		x.Weekday = day
		x.Sources["weekday"] = SourcePattern
	}
	if Urgent(content) {
		x.Urgent = true
		x.Sources["urgent"] = SourcePattern
	}

	if e.understander == nil || (x.Weekday != "" && x.Urgent && x.Sources["duration"] == SourcePattern) {
		return x, nil
	}

	u, err := e.understander.Understand(ctx, content)
	if err != nil {
		metrics.ExtractionFallbackTotal.WithLabelValues("error").Inc()
		e.logger.Warn("Fallback extraction failed, using pattern results", "error", err)
		x.FallbackErr = fmt.Errorf("%w: %w", ErrFallback, err)
		return x, nil
	}
	metrics.ExtractionFallbackTotal.WithLabelValues("ok").Inc()

	if x.Weekday == "" {
		if day, ok := Weekday(u.DayOfWeek); ok {
			x.Weekday = day
			x.Sources["weekday"] = SourceFallback
		}
	}
	if !x.Urgent && u.IsUrgent {
		x.Urgent = true
		x.Sources["urgent"] = SourceFallback
	}
	if x.Sources["duration"] == SourceDefault && u.DurationMins > 0 && u.DurationMins <= MaxDurationMinutes {
		x.DurationMinutes = u.DurationMins
		x.Sources["duration"] = SourceFallback
	}
	return x, nil
}

// Duration returns the meeting length in minutes stated in text.
func Duration(text string) (int, bool) {
	for _, p := range durationPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return n * p.multiplier, true
	}
	return 0, false
}

// Weekday returns the first weekday named in text, checking Monday through Sunday.
func Weekday(text string) (string, bool) {
	for _, d := range dayPatterns {
		if d.re.MatchString(text) {
			return d.name, true
		}
	}
	return "", false
}

// Urgent reports whether text contains an urgency keyword.
func Urgent(text string) bool {
	return urgencyPattern.MatchString(text)
}

// Participants returns the organizer followed by the attendees, trimmed and
// de-duplicated case-insensitively.
func Participants(organizer string, attendees []string) []string {
	seen := make(map[string]bool, len(attendees)+1)
	var out []string
	for _, p := range append([]string{organizer}, attendees...) {
		p = strings.TrimSpace(p)
		key := strings.ToLower(p)
		if p == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
