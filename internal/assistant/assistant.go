package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"meetslot/internal/calendar"
	"meetslot/internal/extract"
	"meetslot/internal/metrics"
	"meetslot/internal/models"
	"meetslot/internal/slots"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidRequest is returned when a request cannot be interpreted.
	ErrInvalidRequest = errors.New("invalid meeting request")

	// ErrNoAvailability is returned when no common free slot exists in the search window.
	ErrNoAvailability = errors.New("no available slots found for all participants")
)

// Response statuses.
const (
	StatusScheduled      = "Successfully Scheduled"
	StatusFailed         = "Failed"
	StatusNoAvailability = "Failed - No Available Slots"
)

// Fetcher loads participants' calendars for a search window.
type Fetcher interface {
	Fetch(ctx context.Context, participants []string, window models.Interval) (map[string][]models.Event, error)
}

// Assistant orchestrates one scheduling request: extraction, calendar fetch,
// slot search and response assembly.
type Assistant struct {
	logger    *slog.Logger
	extractor *extract.Extractor
	fetcher   Fetcher
	finder    *slots.Finder

	// Now is the scheduling clock. It is read once per request.
	Now func() time.Time
}

// New creates an Assistant that uses the wall clock.
func New(logger *slog.Logger, extractor *extract.Extractor, fetcher Fetcher, finder *slots.Finder) *Assistant {
	return &Assistant{
		logger:    logger,
		extractor: extractor,
		fetcher:   fetcher,
		finder:    finder,
		Now:       time.Now,
	}
}

// Schedule handles a meeting request. On failure the returned response still
// carries the request ID, the error text and MetaData describing the failure,
// alongside a non-nil error that Reason can classify.
func (a *Assistant) Schedule(ctx context.Context, req MeetingRequest) (*MeetingResponse, error) {
	started := time.Now()
	now := a.Now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	logger := a.logger.With("requestID", req.RequestID)
	logger.Info("Processing meeting request", "subject", req.Subject, "attendees", len(req.Attendees))

	resp := &MeetingResponse{RequestID: req.RequestID}
	fail := func(status, message string, err error) (*MeetingResponse, error) {
		reason := Reason(err)
		metrics.RequestsTotal.WithLabelValues(reason).Inc()
		logger.Warn("Meeting request failed", "reason", reason, "error", err, "elapsed", time.Since(started))

		resp.Error = message
		resp.MetaData = MetaData{
			Status:         status,
			IsUrgent:       resp.MetaData.IsUrgent,
			Reason:         reason,
			ProcessingTime: seconds(time.Since(started)),
		}
		return resp, err
	}

	parseStart := time.Now()
	x, err := a.extractor.Extract(ctx, req.EmailContent, req.From, req.AttendeeEmails())
	parseTime := stage("parse", parseStart)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		return fail(StatusFailed, err.Error(), err)
	}
	logger.Debug("Parsed request", "participants", len(x.Participants), "durationMins", x.DurationMinutes,
		"weekday", x.Weekday, "urgent", x.Urgent, "sources", x.Sources)

	window := a.finder.Policy.Window(now, x.Urgent, x.Weekday)

	fetchStart := time.Now()
	calendars, err := a.fetcher.Fetch(ctx, x.Participants, window)
	fetchTime := stage("fetch", fetchStart)
	if err != nil {
		return fail(StatusFailed, err.Error(), fmt.Errorf("failed to fetch calendars: %w", err))
	}

	scheduleStart := time.Now()
	res, err := a.finder.Find(slots.Request{
		Busy:            calendar.BusyIntervals(calendars),
		DurationMinutes: x.DurationMinutes,
		Weekday:         x.Weekday,
		Urgent:          x.Urgent,
		Now:             now,
	})
	scheduleTime := stage("schedule", scheduleStart)
	if err != nil {
		return fail(StatusFailed, err.Error(), err)
	}
	metrics.CandidatesPerRequest.Observe(float64(res.Candidates))

	if !res.Found {
		resp.MetaData.IsUrgent = x.Urgent
		return fail(StatusNoAvailability, "No available slots found for all participants", ErrNoAvailability)
	}

	meeting := models.Event{
		Summary:      req.Subject,
		StartTime:    res.Slot.Start,
		EndTime:      res.Slot.End,
		Attendees:    x.Participants,
		NumAttendees: len(x.Participants),
	}

	attendees := make([]AttendeeEvents, 0, len(x.Participants))
	for _, p := range x.Participants {
		events := append(slices.Clone(calendars[p]), meeting)
		attendees = append(attendees, AttendeeEvents{Email: p, Events: events})
	}

	*resp = MeetingResponse{
		RequestID:    req.RequestID,
		Datetime:     req.Datetime,
		Location:     req.Location,
		From:         req.From,
		Attendees:    attendees,
		Subject:      req.Subject,
		EmailContent: req.EmailContent,
		EventStart:   res.Slot.Start.Format(time.RFC3339),
		EventEnd:     res.Slot.End.Format(time.RFC3339),
		DurationMins: fmt.Sprint(x.DurationMinutes),
		MetaData: MetaData{
			Status:         StatusScheduled,
			AgentNotes:     agentNotes(res.Slot, x.Urgent, now),
			IsUrgent:       x.Urgent,
			ProcessingTime: seconds(time.Since(started)),
			Performance: &Performance{
				ParseTime:    seconds(parseTime),
				FetchTime:    seconds(fetchTime),
				ScheduleTime: seconds(scheduleTime),
			},
		},
		Meeting: meeting,
	}
	if x.FallbackErr != nil {
		resp.MetaData.Warnings = append(resp.MetaData.Warnings, x.FallbackErr.Error())
	}

	metrics.RequestsTotal.WithLabelValues("scheduled").Inc()
	logger.Info("Meeting scheduled", "start", resp.EventStart, "end", resp.EventEnd, "score", res.Score,
		"candidates", res.Candidates, "elapsed", time.Since(started))
	return resp, nil
}

func agentNotes(slot models.Slot, urgent bool, now time.Time) string {
	if urgent {
		return fmt.Sprintf("URGENT: Scheduled earliest available slot in %.1fh", slot.Start.Sub(now).Hours())
	}
	return fmt.Sprintf("Optimally scheduled for %s", slot.Start.Format("Monday 03:04 PM"))
}

func stage(name string, start time.Time) time.Duration {
	d := time.Since(start)
	metrics.StageDurationSeconds.WithLabelValues(name).Observe(d.Seconds())
	return d
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
