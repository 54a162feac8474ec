// internal/config/config.go
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

// Config is resolved once at process start and passed explicitly to
// everything that needs a secret or credential.
type Config struct {
	Port           string
	DatabaseURL    string
	RedisURL       string
	AllowedOrigins []string

	WebhookSecret     string
	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string

	IdempotencyTTL time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads .env (outside production) and then the process environment.
func Load() (*Config, error) {
	// Production injects env vars through infra; .env is a dev convenience only.
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8083")
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io")
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	cfg := &Config{
		Port:              v.GetString("PORT"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		RedisURL:          v.GetString("REDIS_URL"),
		AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
		WebhookSecret:     v.GetString("PIPELINE_WEBHOOK_SECRET"),
		ElevenLabsAPIKey:  v.GetString("ELEVENLABS_API_KEY"),
		ElevenLabsBaseURL: v.GetString("ELEVENLABS_BASE_URL"),
		IdempotencyTTL:    v.GetDuration("IDEMPOTENCY_TTL"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	return cfg, nil
}

// splitList parses a comma separated env value, e.g. ALLOWED_ORIGINS=https://a.com,https://b.com
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
