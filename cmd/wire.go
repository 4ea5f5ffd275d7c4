package main

import (
	"context"
	"fmt"
	"log/slog"
	"meetslot/internal/assistant"
	"meetslot/internal/calendar"
	"meetslot/internal/config"
	"meetslot/internal/extract"
	"meetslot/internal/google"
	"meetslot/internal/icloud"
	"meetslot/internal/slots"
	"time"

	"github.com/go-redis/redis/v8"
)

// buildAssistant wires calendar sources, cache, text understanding and the slot
// finder from cfg. The returned cleanup releases network clients.
func buildAssistant(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*assistant.Assistant, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Cleanup failed", "error", err)
			}
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}

	source, err := buildSource(ctx, logger, cfg)
	if err != nil {
		return nil, nil, err
	}

	cache, closeCache, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	understander, closeUnderstander, err := buildUnderstander(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if closeUnderstander != nil {
		closers = append(closers, closeUnderstander)
	}

	fetcher := calendar.NewFetcher(logger, source, cache, calendar.FetchOptions{
		Timeout:                  cfg.FetchTimeout,
		AllowUnknownParticipants: cfg.AllowUnknownParticipants,
	})

	policy := slots.DefaultPolicy(loc)
	policy.Step = cfg.SlotStep

	logger.Info("Assistant configured",
		"timezone", loc.String(),
		"cache", cfg.CacheBackend,
		"llm", cfg.LLMProvider,
		"slotStep", cfg.SlotStep,
	)
	a := assistant.New(logger, extract.New(logger, understander, cfg.DefaultDurationMins), fetcher, slots.NewFinder(policy))
	return a, cleanup, nil
}

// buildSource routes CalDAV participants to the CalDAV client and everyone
// else to their Google calendar.
func buildSource(ctx context.Context, logger *slog.Logger, cfg *config.Config) (calendar.Source, error) {
	accounts, err := config.ParseMapping(cfg.TokenMapping)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_MAPPING: %w", err)
	}

	var fallback calendar.Source
	oauthConfig, err := google.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret)
	if err != nil {
		logger.Warn("Google Calendar disabled", "error", err)
	} else {
		if known, err := google.TokenAccounts(cfg.TokenDir); err == nil {
			logger.Info("Found Google token accounts", "accounts", known)
		}
		fallback = google.NewProvider(ctx, logger, oauthConfig, cfg.TokenDir, accounts, cfg.FetchMaxResults)
	}
	router := calendar.NewRouter(fallback)

	calendars, err := config.ParseMapping(cfg.CalDAVCalendars)
	if err != nil {
		return nil, fmt.Errorf("invalid CALDAV_CALENDARS: %w", err)
	}
	if len(calendars) > 0 {
		client, err := icloud.NewClient(logger, cfg.CalDAVEndpoint, cfg.CalDAVUsername, cfg.CalDAVPassword, calendars)
		if err != nil {
			return nil, fmt.Errorf("failed to create caldav client: %w", err)
		}
		for _, p := range client.Participants() {
			router.Route(p, client)
		}
		logger.Info("Initialized CalDAV client", "participants", len(calendars))
	}
	return router, nil
}

func buildCache(ctx context.Context, cfg *config.Config) (calendar.Cache, func() error, error) {
	switch cfg.CacheBackend {
	case "memory":
		return calendar.NewMemoryCache(cfg.CacheSize, cfg.CacheTTL), nil, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return calendar.NewRedisCache(client, cfg.CacheTTL), client.Close, nil
	default:
		return nil, nil, nil
	}
}

func buildUnderstander(ctx context.Context, cfg *config.Config) (extract.Understander, func() error, error) {
	switch cfg.LLMProvider {
	case "openai":
		return extract.NewOpenAIUnderstander(cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMAPIKey, cfg.LLMTimeout), nil, nil
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, nil, fmt.Errorf("LLM_PROVIDER=gemini requires GEMINI_API_KEY")
		}
		g, err := extract.NewGeminiUnderstander(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, nil
	}
}
