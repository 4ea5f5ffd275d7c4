package calendar

import (
	"context"
	"errors"
	"log/slog"
	"meetslot/internal/metrics"
	"meetslot/internal/models"
	"time"

	"golang.org/x/sync/errgroup"
)

// FetchOptions tunes a Fetcher.
type FetchOptions struct {
	// Timeout bounds each participant's provider call. Zero means no extra bound.
	Timeout time.Duration
	// AllowUnknownParticipants treats participants without credentials as free
	// instead of failing the whole fetch.
	AllowUnknownParticipants bool
}

// Fetcher loads every participant's events for a time range.
type Fetcher struct {
	source Source
	cache  Cache
	logger *slog.Logger
	opts   FetchOptions
}

// NewFetcher creates a Fetcher. cache may be nil to disable caching.
func NewFetcher(logger *slog.Logger, source Source, cache Cache, opts FetchOptions) *Fetcher {
	return &Fetcher{source: source, cache: cache, logger: logger, opts: opts}
}

// Fetch retrieves events overlapping window for all participants in parallel.
// Either every participant's calendar is returned or an error is; a failure is
// reported as a *FetchError naming the participant.
func (f *Fetcher) Fetch(ctx context.Context, participants []string, window models.Interval) (map[string][]models.Event, error) {
	results := make([][]models.Event, len(participants))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range participants {
		g.Go(func() error {
			events, err := f.fetchOne(gctx, p, window)
			if err != nil {
				return &FetchError{Participant: p, Err: err}
			}
			results[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]models.Event, len(participants))
	for i, p := range participants {
		out[p] = results[i]
	}
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, participant string, window models.Interval) ([]models.Event, error) {
	key := CacheKey(participant, window.Start, window.End)
	if f.cache != nil {
		cached, ok, err := f.cache.Get(ctx, key)
		if err != nil {
			f.logger.Warn("Calendar cache read failed", "participant", participant, "error", err)
		} else if ok {
			metrics.CalendarFetchTotal.WithLabelValues("hit").Inc()
			f.logger.Debug("Calendar cache hit", "participant", participant, "count", len(cached))
			return cached, nil
		}
	}

	callCtx := ctx
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	raw, err := f.source.Events(callCtx, participant, window.Start, window.End)
	if err != nil {
		if errors.Is(err, ErrNoCredentials) && f.opts.AllowUnknownParticipants {
			f.logger.Warn("No credentials for participant, treating calendar as empty", "participant", participant)
			return []models.Event{}, nil
		}
		metrics.CalendarFetchTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CalendarFetchTotal.WithLabelValues("miss").Inc()

	events := f.clean(participant, raw)
	f.logger.Info("Fetched calendar", "participant", participant, "count", len(events))

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, events); err != nil {
			f.logger.Warn("Calendar cache write failed", "participant", participant, "error", err)
		}
	}
	return events, nil
}

// clean drops events whose times are missing or inverted.
func (f *Fetcher) clean(participant string, raw []models.Event) []models.Event {
	events := make([]models.Event, 0, len(raw))
	for _, e := range raw {
		if !e.Valid() {
			metrics.CalendarEventsDropped.Inc()
			f.logger.Warn("Dropping malformed event", "participant", participant, "summary", e.Summary,
				"start", e.StartTime, "end", e.EndTime)
			continue
		}
		events = append(events, e)
	}
	return events
}
