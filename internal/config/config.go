package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full runtime configuration, loaded from the
// environment with an optional .env file.
type Config struct {
	// Discord
	DiscordToken  string
	ApplicationID string
	GuildID       string

	// Durable store
	DatabaseDSN string

	// Dashboard cache
	RedisAddr     string
	RedisPassword string

	// Ticket system
	StaffRoleID      string
	TicketCategoryID string

	// Compliance audit
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration

	// Dashboard
	DashboardAddr string
	AdminPassword string
	CacheTTL      time.Duration

	// Members excluded from all tracking (internal team accounts)
	IgnoredMemberIDs map[int64]struct{}

	LogLevel string
}

// Load reads configuration from a .env file (if present) and the
// process environment, then validates it.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		ApplicationID:    os.Getenv("APPLICATION_ID"),
		GuildID:          os.Getenv("GUILD_ID"),
		DatabaseDSN:      os.Getenv("DATABASE_DSN"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		StaffRoleID:      os.Getenv("STAFF_ROLE_ID"),
		TicketCategoryID: os.Getenv("TICKET_CATEGORY_ID"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash-lite"),
		GeminiTimeout:    time.Duration(getEnvInt("GEMINI_TIMEOUT_SECONDS", 20)) * time.Second,
		DashboardAddr:    getEnv("DASHBOARD_ADDR", ":8080"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		CacheTTL:         time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	ignored, err := parseIDList(os.Getenv("IGNORED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid IGNORED_USER_IDS: %w", err)
	}
	cfg.IgnoredMemberIDs = ignored

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the required settings are present.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	return nil
}

// TicketingConfigured reports whether the ticket workflow has the role
// it needs to grant staff access to ticket channels.
func (c *Config) TicketingConfigured() bool {
	return c.StaffRoleID != ""
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// parseIDList parses a comma-separated list of Discord snowflakes.
func parseIDList(raw string) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not a snowflake: %q", part)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}
