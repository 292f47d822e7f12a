package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/mailtrail/internal/cli"
	"github.com/custodia-labs/mailtrail/internal/config"
	"github.com/custodia-labs/mailtrail/internal/credstore"
	"github.com/custodia-labs/mailtrail/internal/logger"
	"github.com/custodia-labs/mailtrail/outlook"
)

// version is set by goreleaser ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env if present. Variables already set in the environment win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, continuing with defaults: %v", err)
	}

	opts := []outlook.Option{}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, outlook.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		}))
	}
	if cfg.RequestsPerSecond > 0 {
		opts = append(opts, outlook.WithRateLimit(outlook.RateLimitConfig{
			RequestsPerSecond: cfg.RequestsPerSecond,
			BurstSize:         cfg.BurstSize,
		}))
	}
	if cfg.Mailbox != "" {
		opts = append(opts, outlook.WithMailbox(cfg.Mailbox))
	}

	// Seed the session from a stored login when one exists. A stored
	// mailbox is more specific than the configured one, so it wins.
	if creds, err := credstore.Load(); err == nil && creds.IsValid() {
		if cred, err := creds.Credential(); err == nil {
			opts = append(opts, outlook.WithCredential(cred))
			if creds.Mailbox != "" {
				opts = append(opts, outlook.WithMailbox(creds.Mailbox))
			}
		}
	}

	cli.SetVersion(version)
	cli.SetServices(&cli.Services{
		Client: outlook.NewClient(opts...),
		Config: cfg,
	})

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
