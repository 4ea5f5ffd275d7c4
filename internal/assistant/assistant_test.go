package assistant_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"meetslot/internal/assistant"
	"meetslot/internal/calendar"
	"meetslot/internal/extract"
	"meetslot/internal/models"
	"meetslot/internal/slots"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2024-01-01 08:00 UTC; routine requests without a weekday search Tuesday 09:00-18:00.
var monday8am = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

func tuesday(hour, minute int) time.Time {
	return time.Date(2024, time.January, 2, hour, minute, 0, 0, time.UTC)
}

type fakeFetcher struct {
	events       map[string][]models.Event
	err          error
	participants []string
	window       models.Interval
}

func (f *fakeFetcher) Fetch(ctx context.Context, participants []string, window models.Interval) (map[string][]models.Event, error) {
	f.participants = participants
	f.window = window
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string][]models.Event, len(participants))
	for _, p := range participants {
		out[p] = f.events[p]
	}
	return out, nil
}

func newAssistant(fetcher assistant.Fetcher) *assistant.Assistant {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := assistant.New(logger, extract.New(logger, nil, 30), fetcher, slots.NewFinder(slots.DefaultPolicy(time.UTC)))
	a.Now = func() time.Time { return monday8am }
	return a
}

func request(content string) assistant.MeetingRequest {
	return assistant.MeetingRequest{
		RequestID:    "req-1",
		Datetime:     "01-01-2024T08:00:00",
		Location:     "IIT Mumbai",
		From:         "boss@example.com",
		Attendees:    []assistant.Attendee{{Email: "a@example.com"}},
		Subject:      "Design review",
		EmailContent: content,
	}
}

func TestSchedule_Routine(t *testing.T) {
	busy := models.Event{Summary: "Standup", StartTime: tuesday(10, 0), EndTime: tuesday(11, 0)}
	fetcher := &fakeFetcher{events: map[string][]models.Event{"a@example.com": {busy}}}
	a := newAssistant(fetcher)

	resp, err := a.Schedule(context.Background(), request("Let's meet for 30 minutes to go over the design."))

	require.NoError(t, err)
	assert.Equal(t, []string{"boss@example.com", "a@example.com"}, fetcher.participants)
	assert.Equal(t, models.Interval{Start: tuesday(9, 0), End: tuesday(18, 0)}, fetcher.window)

	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, "IIT Mumbai", resp.Location)
	assert.Equal(t, "2024-01-02T11:00:00Z", resp.EventStart)
	assert.Equal(t, "2024-01-02T11:30:00Z", resp.EventEnd)
	assert.Equal(t, "30", resp.DurationMins)
	assert.Empty(t, resp.Error)

	assert.Equal(t, assistant.StatusScheduled, resp.MetaData.Status)
	assert.Equal(t, "Optimally scheduled for Tuesday 11:00 AM", resp.MetaData.AgentNotes)
	assert.False(t, resp.MetaData.IsUrgent)
	require.NotNil(t, resp.MetaData.Performance)

	require.Len(t, resp.Attendees, 2)
	assert.Equal(t, "boss@example.com", resp.Attendees[0].Email)
	require.Len(t, resp.Attendees[0].Events, 1)
	assert.Equal(t, "Design review", resp.Attendees[0].Events[0].Summary)
	require.Len(t, resp.Attendees[1].Events, 2)
	assert.Equal(t, "Standup", resp.Attendees[1].Events[0].Summary)
	assert.Equal(t, 2, resp.Attendees[1].Events[1].NumAttendees)

	assert.True(t, tuesday(11, 0).Equal(resp.Meeting.StartTime))
	assert.Len(t, fetcher.events["a@example.com"], 1, "fetched calendar must not be modified")
}

func TestSchedule_Urgent(t *testing.T) {
	a := newAssistant(&fakeFetcher{})

	resp, err := a.Schedule(context.Background(), request("This is urgent, need 30 minutes with you."))

	require.NoError(t, err)
	assert.Equal(t, "2024-01-01T08:00:00Z", resp.EventStart)
	assert.True(t, resp.MetaData.IsUrgent)
	assert.Equal(t, "URGENT: Scheduled earliest available slot in 0.0h", resp.MetaData.AgentNotes)
}

func TestSchedule_Weekday(t *testing.T) {
	fetcher := &fakeFetcher{}
	a := newAssistant(fetcher)

	resp, err := a.Schedule(context.Background(), request("Can we do Thursday for 1 hour?"))

	require.NoError(t, err)
	assert.Equal(t, "2024-01-04T10:00:00Z", resp.EventStart)
	assert.Equal(t, "2024-01-04T11:00:00Z", resp.EventEnd)
	assert.Equal(t, "60", resp.DurationMins)
	assert.Equal(t, time.Date(2024, time.January, 4, 9, 0, 0, 0, time.UTC), fetcher.window.Start)
}

func TestSchedule_GeneratesRequestID(t *testing.T) {
	a := newAssistant(&fakeFetcher{})
	req := request("30 minutes please")
	req.RequestID = ""

	resp, err := a.Schedule(context.Background(), req)

	require.NoError(t, err)
	assert.Len(t, resp.RequestID, 36)
}

func TestSchedule_Failures(t *testing.T) {
	wholeDay := models.Event{Summary: "Offsite", StartTime: tuesday(8, 0), EndTime: tuesday(19, 0)}

	tests := map[string]struct {
		fetcher        *fakeFetcher
		mutate         func(*assistant.MeetingRequest)
		expectedErr    error
		expectedReason string
		expectedStatus string
	}{
		"NoAvailability": {
			fetcher:        &fakeFetcher{events: map[string][]models.Event{"a@example.com": {wholeDay}}},
			expectedErr:    assistant.ErrNoAvailability,
			expectedReason: assistant.ReasonNoAvailability,
			expectedStatus: assistant.StatusNoAvailability,
		},
		"ProviderDown": {
			fetcher:        &fakeFetcher{err: &calendar.FetchError{Participant: "a@example.com", Err: calendar.ErrProvider}},
			expectedErr:    calendar.ErrProvider,
			expectedReason: assistant.ReasonCalendarUnavailable,
			expectedStatus: assistant.StatusFailed,
		},
		"MissingCredentials": {
			fetcher:        &fakeFetcher{err: &calendar.FetchError{Participant: "a@example.com", Err: calendar.ErrNoCredentials}},
			expectedErr:    calendar.ErrNoCredentials,
			expectedReason: assistant.ReasonMissingCredentials,
			expectedStatus: assistant.StatusFailed,
		},
		"ZeroDuration": {
			fetcher:        &fakeFetcher{},
			mutate:         func(r *assistant.MeetingRequest) { r.EmailContent = "block 0 minutes" },
			expectedErr:    slots.ErrInvalidDuration,
			expectedReason: assistant.ReasonInvalidDuration,
			expectedStatus: assistant.StatusFailed,
		},
		"NoParticipants": {
			fetcher: &fakeFetcher{},
			mutate: func(r *assistant.MeetingRequest) {
				r.From = ""
				r.Attendees = nil
			},
			expectedErr:    assistant.ErrInvalidRequest,
			expectedReason: assistant.ReasonInvalidRequest,
			expectedStatus: assistant.StatusFailed,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req := request("Sync for 30 minutes")
			if tc.mutate != nil {
				tc.mutate(&req)
			}

			resp, err := newAssistant(tc.fetcher).Schedule(context.Background(), req)

			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedErr)
			require.NotNil(t, resp)
			assert.Equal(t, "req-1", resp.RequestID)
			assert.NotEmpty(t, resp.Error)
			assert.Empty(t, resp.EventStart)
			assert.Equal(t, tc.expectedStatus, resp.MetaData.Status)
			assert.Equal(t, tc.expectedReason, resp.MetaData.Reason)
			assert.Equal(t, tc.expectedReason, assistant.Reason(err))
		})
	}
}

func TestSchedule_NoAvailabilityMessage(t *testing.T) {
	wholeDay := models.Event{StartTime: tuesday(8, 0), EndTime: tuesday(19, 0)}
	a := newAssistant(&fakeFetcher{events: map[string][]models.Event{"boss@example.com": {wholeDay}}})

	resp, _ := a.Schedule(context.Background(), request("Sync for 30 minutes"))

	assert.Equal(t, "No available slots found for all participants", resp.Error)
}

func TestReason(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"Nil":             {err: nil, want: ""},
		"Deadline":        {err: fmt.Errorf("fetch: %w", context.DeadlineExceeded), want: assistant.ReasonCalendarUnavailable},
		"FetchErrorOther": {err: &calendar.FetchError{Participant: "x", Err: errors.New("boom")}, want: assistant.ReasonCalendarUnavailable},
		"Malformed":       {err: slots.ErrMalformedInterval, want: assistant.ReasonInternal},
		"Unknown":         {err: errors.New("boom"), want: assistant.ReasonInternal},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, assistant.Reason(tc.err))
		})
	}
}

func TestMeetingResponse_JSONShape(t *testing.T) {
	a := newAssistant(&fakeFetcher{})
	resp, err := a.Schedule(context.Background(), request("Sync for 45 minutes"))
	require.NoError(t, err)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"Request_id", "Datetime", "Location", "From", "Attendees", "Subject",
		"EmailContent", "EventStart", "EventEnd", "Duration_mins", "MetaData"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "error")
	assert.NotContains(t, doc, "Meeting")

	meta := doc["MetaData"].(map[string]any)
	assert.Equal(t, "45", doc["Duration_mins"])
	assert.Contains(t, meta, "performance")
	assert.Contains(t, meta["performance"], "parse_time")

	attendees := doc["Attendees"].([]any)
	first := attendees[0].(map[string]any)
	assert.Equal(t, "boss@example.com", first["email"])
	events := first["events"].([]any)
	assert.Contains(t, events[0], "StartTime")
	assert.Contains(t, events[0], "Summary")
}
