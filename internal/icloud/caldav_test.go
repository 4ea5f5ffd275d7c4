package icloud_test

import (
	"context"
	"io"
	"log/slog"
	calsrc "meetslot/internal/calendar"
	"meetslot/internal/icloud"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, lines ...string) *ical.Calendar {
	t.Helper()
	body := strings.Join(append(append([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
	}, lines...), "END:VCALENDAR"), "\r\n") + "\r\n"
	cal, err := ical.NewDecoder(strings.NewReader(body)).Decode()
	require.NoError(t, err)
	return cal
}

func TestFromCalendar(t *testing.T) {
	cal := decode(t,
		"BEGIN:VEVENT",
		"UID:review",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20240102T100000Z",
		"DTEND:20240102T110000Z",
		"SUMMARY:Review",
		"ATTENDEE:mailto:A@example.com",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:all-day",
		"DTSTAMP:20240101T000000Z",
		"DTSTART;VALUE=DATE:20240102",
		"DTEND;VALUE=DATE:20240103",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:free",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20240102T120000Z",
		"DTEND:20240102T130000Z",
		"TRANSP:TRANSPARENT",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:standup",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20231230T090000Z",
		"DTEND:20231230T091500Z",
		"RRULE:FREQ=DAILY",
		"SUMMARY:Standup",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:sync",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20240102T140000Z",
		"DURATION:PT30M",
		"END:VEVENT",
	)
	from := time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 2, 18, 0, 0, 0, time.UTC)

	got := icloud.FromCalendar(discardLogger(), cal, from, to)

	require.Len(t, got, 3)

	assert.Equal(t, "review", got[0].UID)
	assert.Equal(t, "Review", got[0].Summary)
	assert.Equal(t, []string{"a@example.com"}, got[0].Attendees)
	assert.Equal(t, 1, got[0].NumAttendees)
	assert.Equal(t, "caldav", got[0].Source)

	assert.Equal(t, "Standup", got[1].Summary)
	assert.True(t, time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC).Equal(got[1].StartTime))
	assert.True(t, time.Date(2024, time.January, 2, 9, 15, 0, 0, time.UTC).Equal(got[1].EndTime))

	assert.Equal(t, "No Title", got[2].Summary)
	assert.Equal(t, 30*time.Minute, got[2].EndTime.Sub(got[2].StartTime))
}

func TestFromCalendar_OutsideWindow(t *testing.T) {
	cal := decode(t,
		"BEGIN:VEVENT",
		"UID:tomorrow",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20240103T100000Z",
		"DTEND:20240103T110000Z",
		"END:VEVENT",
	)
	from := time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC)

	assert.Empty(t, icloud.FromCalendar(discardLogger(), cal, from, from.Add(10*time.Hour)))
}

func TestCalDAVClient_UnmappedParticipant(t *testing.T) {
	c, err := icloud.NewClient(discardLogger(), "", "user", "pass", map[string]string{"Alice@Example.com": "Work"})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@example.com"}, c.Participants())

	_, err = c.Events(context.Background(), "bob@example.com", time.Now(), time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, calsrc.ErrNoCredentials)
}
