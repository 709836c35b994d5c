// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"WITM_DB_PATH" envDefault:"./data/witm.db"`
	SessionSecret string `env:"WITM_SESSION_SECRET,required"`
	ServerHost    string `env:"WITM_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"WITM_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"WITM_ENV" envDefault:"development"`
	LogLevel      string `env:"WITM_LOG_LEVEL" envDefault:"info"`

	// Admin access: only these emails may enter the back-office.
	AdminAllowlist []string `env:"WITM_ADMIN_EMAILS" envSeparator:","`

	// Identity provider token verification endpoint. Empty disables
	// remote verification (tests inject their own provider).
	IdentityTokenURL string `env:"WITM_IDENTITY_TOKEN_URL"`

	// Generation service (Anthropic-compatible messages API)
	AnthropicAPIKey  string        `env:"WITM_ANTHROPIC_API_KEY"`
	GenerationModel  string        `env:"WITM_GENERATION_MODEL" envDefault:"claude-sonnet-4-20250514"`
	BatchPollEvery   time.Duration `env:"WITM_BATCH_POLL_INTERVAL" envDefault:"30s"`
	GenerationAPIURL string        `env:"WITM_GENERATION_API_URL" envDefault:"https://api.anthropic.com/v1"`

	// Backing store batch limit: a single atomic write is chunked into
	// transactions of at most this many operations.
	StoreBatchLimit int `env:"WITM_STORE_BATCH_LIMIT" envDefault:"400"`

	// Cache configuration
	RedisURL     string `env:"WITM_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"WITM_CACHE_PREFIX" envDefault:"witm:"`   // Redis key prefix
	CacheTTL     int    `env:"WITM_CACHE_TTL" envDefault:"300"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"WITM_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// CORS origins allowed to call the public API (the React frontend).
	CORSOrigins []string `env:"WITM_CORS_ORIGINS" envSeparator:"," envDefault:"https://whoisthemost.com,https://www.whoisthemost.com,http://localhost:5173"`

	// Housekeeping
	DraftIdleTimeout   time.Duration `env:"WITM_DRAFT_IDLE_TIMEOUT" envDefault:"2h"`   // Drop draft workspaces idle longer than this
	EventRetentionDays int           `env:"WITM_EVENT_RETENTION_DAYS" envDefault:"90"` // Delete event log entries older than this

	// Seeding configuration
	DoSeed bool `env:"WITM_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GenerationEnabled returns true if the generation service is configured.
func (c Config) GenerationEnabled() bool {
	return c.AnthropicAPIKey != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("WITM_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("WITM_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("WITM_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	// Trim stray whitespace from list entries so " b@x.com" matches.
	for i, email := range cfg.AdminAllowlist {
		cfg.AdminAllowlist[i] = strings.TrimSpace(email)
	}
	for i, origin := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(origin)
	}

	if cfg.StoreBatchLimit <= 0 {
		return nil, fmt.Errorf("WITM_STORE_BATCH_LIMIT must be positive, got %d", cfg.StoreBatchLimit)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
