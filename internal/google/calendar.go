package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	calsrc "meetslot/internal/calendar"
	"meetslot/internal/models"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	credentialsFile = "credentials.json"
	primaryCalendar = "primary"
	untitledEvent   = "No Title"
)

// CalendarClient provides a client for interacting with the Google Calendar API
// on behalf of one authenticated account.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient creates a Google Calendar client authenticated with the token stored in tokenFile.
// A missing token file is reported as calendar.ErrNoCredentials.
func NewClient(ctx context.Context, logger *slog.Logger, config *oauth2.Config, tokenFile string) (*CalendarClient, error) {
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: token file %s not found, run the 'auth' command first", calsrc.ErrNoCredentials, tokenFile)
		}
		return nil, fmt.Errorf("could not load token %s: %w", tokenFile, err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger}, nil
}

// ListEvents fetches single (expanded) events of calendarID overlapping [from, to).
func (c *CalendarClient) ListEvents(ctx context.Context, calendarID string, from, to time.Time, maxResults int64) ([]models.Event, error) {
	c.logger.Debug("Fetching events", "calendarID", calendarID, "from", from, "to", to)

	call := c.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx)
	if maxResults > 0 {
		call = call.MaxResults(maxResults)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to retrieve events: %w", calsrc.ErrProvider, err)
	}

	c.logger.Debug("Fetched events from Google Calendar", "count", len(events.Items), "calendarID", calendarID)
	return ToEvents(c.logger, events.Items, calendarID), nil
}

// ToEvents converts Google Calendar events to the internal Event model.
// All-day events and events with unparseable times are skipped.
func ToEvents(logger *slog.Logger, items []*calendar.Event, source string) []models.Event {
	out := make([]models.Event, 0, len(items))
	for _, item := range items {
		// All-day events carry only a date and do not block a timed slot.
		if item.Start == nil || item.End == nil || item.Start.DateTime == "" || item.End.DateTime == "" {
			continue
		}

		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			logger.Warn("Skipping event with unparseable start", "id", item.Id, "start", item.Start.DateTime, "error", err)
			continue
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			logger.Warn("Skipping event with unparseable end", "id", item.Id, "end", item.End.DateTime, "error", err)
			continue
		}

		attendees := make([]string, 0, len(item.Attendees))
		for _, a := range item.Attendees {
			attendees = append(attendees, a.Email)
		}

		summary := item.Summary
		if summary == "" {
			summary = untitledEvent
		}

		out = append(out, models.Event{
			ID:           item.Id,
			Summary:      summary,
			StartTime:    start,
			EndTime:      end,
			Attendees:    attendees,
			NumAttendees: len(attendees),
			UID:          item.ICalUID,
			Source:       fmt.Sprintf("google-%s", source),
		})
	}
	return out
}

// Provider reads each participant's primary Google calendar using the token of
// the account mapped to that participant. It implements calendar.Source.
type Provider struct {
	ctx        context.Context
	logger     *slog.Logger
	config     *oauth2.Config
	tokenDir   string
	accounts   map[string]string
	maxResults int64

	mu      sync.Mutex
	clients map[string]*CalendarClient
}

// NewProvider creates a Provider. accounts maps lower-cased participant emails to
// token account names; unmapped participants use their email as the account name.
// ctx is kept for token refreshes and should outlive individual requests.
func NewProvider(ctx context.Context, logger *slog.Logger, config *oauth2.Config, tokenDir string, accounts map[string]string, maxResults int64) *Provider {
	if accounts == nil {
		accounts = map[string]string{}
	}
	return &Provider{
		ctx:        ctx,
		logger:     logger,
		config:     config,
		tokenDir:   tokenDir,
		accounts:   accounts,
		maxResults: maxResults,
		clients:    make(map[string]*CalendarClient),
	}
}

// Events implements calendar.Source.
func (p *Provider) Events(ctx context.Context, participant string, from, to time.Time) ([]models.Event, error) {
	client, err := p.client(participant)
	if err != nil {
		return nil, err
	}
	return client.ListEvents(ctx, primaryCalendar, from, to, p.maxResults)
}

func (p *Provider) client(participant string) (*CalendarClient, error) {
	account := p.Account(participant)

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[account]; ok {
		return c, nil
	}

	c, err := NewClient(p.ctx, p.logger, p.config, filepath.Join(p.tokenDir, TokenFileName(account)))
	if err != nil {
		return nil, err
	}
	p.clients[account] = c
	return c, nil
}

// Account returns the token account used for participant.
func (p *Provider) Account(participant string) string {
	key := strings.ToLower(strings.TrimSpace(participant))
	if account, ok := p.accounts[key]; ok {
		return account
	}
	return key
}

// OAuthConfig reads credentials and returns an OAuth2 config for read-only calendar access.
// It prioritizes the client ID and secret over a local credentials.json file.
func OAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the root directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// ExchangeCode is called by the auth flow to trade an authorization code for a token.
func ExchangeCode(ctx context.Context, config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(ctx, authCode)
}

// TokenFileName returns the file name holding the token of account.
func TokenFileName(account string) string {
	return "token-" + account + ".json"
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// TokenAccounts lists the account names that have a token file in dir.
func TokenAccounts(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var accounts []string
	for _, file := range files {
		if strings.HasPrefix(file.Name(), "token-") && strings.HasSuffix(file.Name(), ".json") {
			accountName := strings.TrimSuffix(strings.TrimPrefix(file.Name(), "token-"), ".json")
			accounts = append(accounts, accountName)
		}
	}
	sort.Strings(accounts)
	return accounts, nil
}
