package icloud

import (
	"context"
	"fmt"
	"log/slog"
	calsrc "meetslot/internal/calendar"
	"meetslot/internal/models"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

const (
	// DefaultEndpoint is the iCloud CalDAV endpoint.
	DefaultEndpoint = "https://caldav.icloud.com/"
	userAgent       = "meetslot/1.0"
)

// userAgentTransport adds the client's User-Agent to each request.
type userAgentTransport struct {
	Transport http.RoundTripper
}

// RoundTrip sets the User-Agent header and delegates to the wrapped transport.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return t.Transport.RoundTrip(req)
}

// CalDAVClient reads participants' events from named calendars on a CalDAV
// server (iCloud by default). It implements calendar.Source.
type CalDAVClient struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	calendars    map[string]string // lower-cased participant -> calendar display name

	mu    sync.Mutex
	paths map[string]string // calendar display name -> collection path
}

// NewClient creates a CalDAVClient. calendars maps participant emails to the
// display name of the calendar that holds their events.
func NewClient(logger *slog.Logger, endpoint, username, password string, calendars map[string]string) (*CalDAVClient, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := &http.Client{Transport: &userAgentTransport{Transport: http.DefaultTransport}}

	caldavClient, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, username, password), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	normalized := make(map[string]string, len(calendars))
	for participant, name := range calendars {
		normalized[strings.ToLower(participant)] = name
	}

	return &CalDAVClient{
		caldavClient: caldavClient,
		logger:       logger,
		calendars:    normalized,
		paths:        make(map[string]string),
	}, nil
}

// Participants returns the participants this client serves.
func (c *CalDAVClient) Participants() []string {
	out := make([]string, 0, len(c.calendars))
	for p := range c.calendars {
		out = append(out, p)
	}
	return out
}

// Events implements calendar.Source.
func (c *CalDAVClient) Events(ctx context.Context, participant string, from, to time.Time) ([]models.Event, error) {
	name, ok := c.calendars[strings.ToLower(participant)]
	if !ok {
		return nil, fmt.Errorf("%w: no CalDAV calendar configured for %s", calsrc.ErrNoCredentials, participant)
	}

	calendarPath, err := c.calendarPath(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", calsrc.ErrProvider, err)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{
				Name: ical.CompEvent,
				Props: []string{
					ical.PropUID, ical.PropSummary, ical.PropDateTimeStart, ical.PropDateTimeEnd,
					ical.PropDuration, ical.PropRecurrenceRule, ical.PropTransparency, ical.PropAttendee,
				},
			}},
		},
		CompFilter: caldav.CompFilter{
			Name:  ical.CompCalendar,
			Comps: []caldav.CompFilter{{Name: ical.CompEvent, Start: from, End: to}},
		},
	}

	c.logger.Debug("Querying CalDAV calendar", "calendar", name, "from", from, "to", to)
	objects, err := c.caldavClient.QueryCalendar(ctx, calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query calendar '%s': %w", calsrc.ErrProvider, name, err)
	}

	var events []models.Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		events = append(events, FromCalendar(c.logger, obj.Data, from, to)...)
	}
	return events, nil
}

// calendarPath resolves and caches the collection path of the named calendar.
func (c *CalDAVClient) calendarPath(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.paths[name]; ok {
		return p, nil
	}

	c.logger.Info("Finding CalDAV calendar", "calendarName", name)
	p, err := c.findCalendar(ctx, name)
	if err != nil {
		return "", fmt.Errorf("could not find calendar '%s': %w", name, err)
	}
	c.paths[name] = p
	return p, nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *CalDAVClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}

	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

// FromCalendar extracts timed, opaque events overlapping [from, to) from an
// iCalendar object. Recurring events are expanded into their occurrences.
func FromCalendar(logger *slog.Logger, cal *ical.Calendar, from, to time.Time) []models.Event {
	loc := from.Location()
	var out []models.Event

	for _, ev := range cal.Events() {
		uid, _ := ev.Props.Text(ical.PropUID)

		startProp := ev.Props.Get(ical.PropDateTimeStart)
		if startProp == nil || startProp.ValueType() == ical.ValueDate {
			continue
		}
		if transp, _ := ev.Props.Text(ical.PropTransparency); strings.EqualFold(transp, "TRANSPARENT") {
			continue
		}

		start, err := ev.DateTimeStart(loc)
		if err != nil {
			logger.Warn("Skipping CalDAV event with unparseable start", "uid", uid, "error", err)
			continue
		}
		end, err := ev.DateTimeEnd(loc)
		if err != nil {
			logger.Warn("Skipping CalDAV event with unparseable end", "uid", uid, "error", err)
			continue
		}

		summary, _ := ev.Props.Text(ical.PropSummary)
		if summary == "" {
			summary = "No Title"
		}
		var attendees []string
		for _, p := range ev.Props.Values(ical.PropAttendee) {
			attendees = append(attendees, strings.TrimPrefix(strings.ToLower(p.Value), "mailto:"))
		}

		base := models.Event{
			ID:           uid,
			UID:          uid,
			Summary:      summary,
			Attendees:    attendees,
			NumAttendees: len(attendees),
			Source:       "caldav",
		}

		length := end.Sub(start)
		occurrences := []time.Time{start}
		set, err := ev.RecurrenceSet(loc)
		if err != nil {
			logger.Warn("Ignoring unparseable recurrence rule", "uid", uid, "error", err)
		} else if set != nil {
			occurrences = set.Between(from.Add(-length), to, true)
		}

		for _, occ := range occurrences {
			e := base
			e.StartTime = occ
			e.EndTime = occ.Add(length)
			if e.StartTime.Before(to) && from.Before(e.EndTime) {
				out = append(out, e)
			}
		}
	}
	return out
}
