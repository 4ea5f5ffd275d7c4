package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"meetslot/internal/assistant"
	"meetslot/internal/config"
	"meetslot/internal/google"
	"meetslot/internal/icloud"
	"meetslot/internal/server"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "meetslot",
		Usage: "Find the best common meeting slot for a meeting request email.",
		Commands: []*cli.Command{
			authCommand(),
			serveCommand(),
			findCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get a read-only calendar token.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "account", Usage: "Name for the token (a participant email or an alias used in TOKEN_MAPPING)."},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			oauthConfig, err := google.OAuthConfig(cfg.GoogleClientID, cfg.GoogleClientSecret)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.ExchangeCode(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			accountName := c.String("account")
			if accountName == "" {
				fmt.Print("Enter a name for this account (e.g., 'alice@example.com', 'work'): ")
				accountName, _ = reader.ReadString('\n')
				accountName = strings.TrimSpace(accountName)
			}
			if accountName == "" {
				return fmt.Errorf("account name must not be empty")
			}
			tokenFile := filepath.Join(cfg.TokenDir, google.TokenFileName(accountName))

			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the meeting assistant HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "Port to listen on. Overrides APP_PORT."},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error. Overrides LOG_LEVEL."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if c.IsSet("port") {
				cfg.AppPort = c.String("port")
			}
			if c.IsSet("log-level") {
				cfg.LogLevel = c.String("log-level")
			}
			logger := setupLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := buildAssistant(ctx, logger, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(logger, a, server.Options{RateLimitPerMin: cfg.RateLimitPerMin})
			return srv.Run(ctx, "0.0.0.0:"+cfg.AppPort)
		},
	}
}

func findCommand() *cli.Command {
	return &cli.Command{
		Name:  "find",
		Usage: "Schedule a single meeting request read from a JSON file or stdin.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Path to the request JSON. Reads stdin when empty."},
			&cli.StringFlag{Name: "now", Usage: "Pin the current time (RFC3339)."},
			&cli.StringFlag{Name: "ics", Usage: "Write the iCalendar invite of the scheduled meeting to this file."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := setupLogger(cfg.LogLevel)

			req, err := readRequest(c.String("input"))
			if err != nil {
				return err
			}

			a, cleanup, err := buildAssistant(c.Context, logger, cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			if raw := c.String("now"); raw != "" {
				now, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return fmt.Errorf("invalid --now '%s': %w", raw, err)
				}
				a.Now = func() time.Time { return now }
			}

			resp, schedErr := a.Schedule(c.Context, req)
			if resp != nil {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(resp); err != nil {
					return fmt.Errorf("failed to write response: %w", err)
				}
			}
			if errors.Is(schedErr, assistant.ErrNoAvailability) {
				return cli.Exit("no available slot", 2)
			}
			if schedErr != nil {
				return schedErr
			}

			if path := c.String("ics"); path != "" {
				invite, err := icloud.EncodeInvite(resp.Meeting, req.From, a.Now())
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, []byte(invite), 0o644); err != nil {
					return fmt.Errorf("failed to write invite: %w", err)
				}
				logger.Info("Wrote invite", "file", path)
			}
			return nil
		},
	}
}

func readRequest(path string) (assistant.MeetingRequest, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return assistant.MeetingRequest{}, fmt.Errorf("failed to open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req assistant.MeetingRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return assistant.MeetingRequest{}, fmt.Errorf("failed to decode request: %w", err)
	}
	return req, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
