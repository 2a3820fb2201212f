// Package config loads process settings for the ritual binaries from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends understood by StoreKind.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Config holds every environment-driven setting. Command-line flags override it.
type Config struct {
	LogLevel string `env:"RITUAL_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"RITUAL_LOG_FILE"`

	Addr             string        `env:"RITUAL_ADDR" envDefault:":8080"`
	ValidateRequests bool          `env:"RITUAL_VALIDATE_REQUESTS" envDefault:"true"`
	FrameInterval    time.Duration `env:"RITUAL_FRAME_INTERVAL" envDefault:"16ms"`
	FixturesDir      string        `env:"RITUAL_FIXTURES_DIR"`

	StoreKind string `env:"RITUAL_STORE" envDefault:"memory"`
	StorePath string `env:"RITUAL_STORE_PATH"`

	RedisAddr     string        `env:"RITUAL_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"RITUAL_REDIS_PASSWORD"`
	RedisDB       int           `env:"RITUAL_REDIS_DB" envDefault:"0"`
	SessionTTL    time.Duration `env:"RITUAL_SESSION_TTL" envDefault:"0s"`
	LockTTL       time.Duration `env:"RITUAL_LOCK_TTL" envDefault:"30s"`

	// EncryptionKey is a base64 AES-256 key. When set, session records are encrypted at rest.
	EncryptionKey          string   `env:"RITUAL_ENCRYPTION_KEY"`
	EncryptionFallbackKeys []string `env:"RITUAL_ENCRYPTION_FALLBACK_KEYS" envSeparator:","`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no backend can honor.
func (c Config) Validate() error {
	switch c.StoreKind {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want memory, file, redis or sqlite)", c.StoreKind)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive, got %s", c.FrameInterval)
	}
	if c.SessionTTL < 0 || c.LockTTL < 0 {
		return fmt.Errorf("ttl must not be negative")
	}
	return nil
}
