package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort         string `mapstructure:"APP_PORT"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	PrimaryTimezone string `mapstructure:"PRIMARY_TIMEZONE"`
	RateLimitPerMin int    `mapstructure:"RATE_LIMIT_PER_MIN"`

	// Google Calendar.
	GoogleClientID           string        `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret       string        `mapstructure:"GOOGLE_CLIENT_SECRET"`
	TokenDir                 string        `mapstructure:"TOKEN_DIR"`
	TokenMapping             string        `mapstructure:"TOKEN_MAPPING"`
	AllowUnknownParticipants bool          `mapstructure:"ALLOW_UNKNOWN_PARTICIPANTS"`
	FetchTimeout             time.Duration `mapstructure:"FETCH_TIMEOUT"`
	FetchMaxResults          int64         `mapstructure:"FETCH_MAX_RESULTS"`

	// CalDAV participants.
	CalDAVEndpoint  string `mapstructure:"CALDAV_ENDPOINT"`
	CalDAVUsername  string `mapstructure:"CALDAV_USERNAME"`
	CalDAVPassword  string `mapstructure:"CALDAV_PASSWORD"`
	CalDAVCalendars string `mapstructure:"CALDAV_CALENDARS"`

	// Calendar cache.
	CacheBackend  string        `mapstructure:"CACHE_BACKEND"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	CacheSize     int           `mapstructure:"CACHE_SIZE"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`

	// Text understanding fallback.
	LLMProvider  string        `mapstructure:"LLM_PROVIDER"`
	LLMBaseURL   string        `mapstructure:"LLM_BASE_URL"`
	LLMModel     string        `mapstructure:"LLM_MODEL"`
	LLMAPIKey    string        `mapstructure:"LLM_API_KEY"`
	GeminiAPIKey string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string        `mapstructure:"GEMINI_MODEL"`
	LLMTimeout   time.Duration `mapstructure:"LLM_TIMEOUT"`

	// Scheduling.
	DefaultDurationMins int           `mapstructure:"DEFAULT_DURATION_MINS"`
	SlotStep            time.Duration `mapstructure:"SLOT_STEP"`
}

var defaults = map[string]any{
	"APP_PORT":                   "5000",
	"LOG_LEVEL":                  "info",
	"PRIMARY_TIMEZONE":           "Asia/Kolkata",
	"RATE_LIMIT_PER_MIN":         200,
	"GOOGLE_CLIENT_ID":           "",
	"GOOGLE_CLIENT_SECRET":       "",
	"TOKEN_DIR":                  ".",
	"TOKEN_MAPPING":              "",
	"ALLOW_UNKNOWN_PARTICIPANTS": false,
	"FETCH_TIMEOUT":              "10s",
	"FETCH_MAX_RESULTS":          100,
	"CALDAV_ENDPOINT":            "https://caldav.icloud.com/",
	"CALDAV_USERNAME":            "",
	"CALDAV_PASSWORD":            "",
	"CALDAV_CALENDARS":           "",
	"CACHE_BACKEND":              "memory",
	"CACHE_TTL":                  "5m",
	"CACHE_SIZE":                 512,
	"REDIS_ADDR":                 "localhost:6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"LLM_PROVIDER":               "none",
	"LLM_BASE_URL":               "http://127.0.0.1:4000/v1",
	"LLM_MODEL":                  "meta-llama/Meta-Llama-3.1-8B-Instruct",
	"LLM_API_KEY":                "",
	"GEMINI_API_KEY":             "",
	"GEMINI_MODEL":               "models/gemini-1.5-pro",
	"LLM_TIMEOUT":                "10s",
	"DEFAULT_DURATION_MINS":      30,
	"SLOT_STEP":                  "15m",
}

// Load reads configuration from config.yaml (current or ./config directory) and
// the environment. Environment variables win over the file; defaults fill the rest.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q (memory, redis or none)", c.CacheBackend)
	}
	switch c.LLMProvider {
	case "none", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (none, openai or gemini)", c.LLMProvider)
	}
	if c.DefaultDurationMins <= 0 {
		return fmt.Errorf("DEFAULT_DURATION_MINS must be positive, got %d", c.DefaultDurationMins)
	}
	if c.SlotStep <= 0 {
		return fmt.Errorf("SLOT_STEP must be positive, got %s", c.SlotStep)
	}
	return nil
}

// Location resolves PRIMARY_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.PrimaryTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.PrimaryTimezone, err)
	}
	return loc, nil
}

// ParseMapping parses "key=value,key2=value2" lists such as TOKEN_MAPPING and
// CALDAV_CALENDARS. Keys are lower-cased; blank entries are skipped.
func ParseMapping(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, value, ok := strings.Cut(entry, "=")
		key, value = strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("malformed mapping entry %q, expected key=value", entry)
		}
		out[key] = value
	}
	return out, nil
}
