package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	defaultCacheTTL      = 5 * time.Minute
	defaultSweepSchedule = "*/10 * * * *"
	defaultCurrency      = "EUR"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken      string
	ChatID             int64
	MongoURI           string
	MongoDB            string
	CacheTTL           time.Duration
	CacheSweepSchedule string
	Currency           string
	Debug              bool
}

// Load reads a .env file when present and builds the configuration from the environment.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil
	cfg, err := FromEnv(os.Getenv)
	return cfg, dotenv, err
}

// FromEnv builds the configuration from a variable lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		TelegramToken:      getenv("TELEGRAM_BOT_TOKEN"),
		MongoURI:           getenv("MONGODB_URI"),
		MongoDB:            getenv("MONGODB_DB"),
		CacheTTL:           defaultCacheTTL,
		CacheSweepSchedule: defaultSweepSchedule,
		Currency:           defaultCurrency,
		Debug:              strings.EqualFold(getenv("LOG_LEVEL"), "debug"),
	}

	// Validate required fields
	var missing []string
	if cfg.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if cfg.MongoDB == "" {
		missing = append(missing, "MONGODB_DB")
	}
	chatIDStr := getenv("TELEGRAM_CHAT_ID")
	if chatIDStr == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required variables: %s", strings.Join(missing, ", "))
	}

	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil || chatID == 0 {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q", chatIDStr)
	}
	cfg.ChatID = chatID

	if raw := getenv("ANALYTICS_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ANALYTICS_CACHE_TTL: %w", err)
		}
		if ttl <= 0 {
			return nil, errors.New("ANALYTICS_CACHE_TTL must be positive")
		}
		cfg.CacheTTL = ttl
	}

	if raw := getenv("CACHE_SWEEP_SCHEDULE"); raw != "" {
		if _, err := cron.ParseStandard(raw); err != nil {
			return nil, fmt.Errorf("invalid CACHE_SWEEP_SCHEDULE: %w", err)
		}
		cfg.CacheSweepSchedule = raw
	}

	if raw := getenv("CURRENCY"); raw != "" {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if money.GetCurrency(code) == nil {
			return nil, fmt.Errorf("invalid CURRENCY %q: unknown ISO 4217 code", raw)
		}
		cfg.Currency = code
	}

	return cfg, nil
}

// IsAuthorizedChat checks if a message comes from the configured chat
func (c *Config) IsAuthorizedChat(chatID int64) bool {
	return chatID == c.ChatID
}
