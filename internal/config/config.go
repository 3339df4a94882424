// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string `yaml:"token" env:"BOT_TOKEN"`
	Mode     string `yaml:"mode" env:"BOT_MODE"`
	Username string `yaml:"username" env:"BOT_USERNAME"`
	Workers  int    `yaml:"workers" env:"BOT_WORKERS"`
	Locale   string `yaml:"locale" env:"BOT_LOCALE"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`       // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"`     // json|console
	Sampling bool   `yaml:"sampling" env:"LOG_SAMPLING"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port" env:"ADMIN_PORT"`
}

type RedisConfig struct {
	URL      string `yaml:"url" env:"REDIS_URL"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type IdentityConfig struct {
	BaseURL string        `yaml:"base_url" env:"IDENTITY_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"IDENTITY_TIMEOUT"`
}

// StateConfig holds the TTLs of everything the bot keeps between events.
type StateConfig struct {
	PendingTTL       time.Duration `yaml:"pending_ttl" env:"STATE_PENDING_TTL"`
	SnapshotTTL      time.Duration `yaml:"snapshot_ttl" env:"STATE_SNAPSHOT_TTL"`
	CredentialMaxTTL time.Duration `yaml:"credential_max_ttl" env:"STATE_CREDENTIAL_MAX_TTL"`
	LockTTL          time.Duration `yaml:"lock_ttl" env:"STATE_LOCK_TTL"`
	LockAttempts     int           `yaml:"lock_attempts" env:"STATE_LOCK_ATTEMPTS"`
}

type RateLimitConfig struct {
	EventsPerMinute int `yaml:"events_per_minute" env:"RATE_LIMIT_EVENTS_PER_MINUTE"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Redis     RedisConfig     `yaml:"redis"`
	Identity  IdentityConfig  `yaml:"identity"`
	State     StateConfig     `yaml:"state"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, then applies environment
// overrides, defaults and validation. A missing file is fine when the
// environment supplies everything required.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Locale == "" {
		cfg.Bot.Locale = "en"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 9090
	}
	if cfg.Identity.Timeout <= 0 {
		cfg.Identity.Timeout = 5 * time.Second
	}
	cfg.State.PendingTTL = normalizeTTL(cfg.State.PendingTTL, 4*time.Minute)
	cfg.State.SnapshotTTL = normalizeTTL(cfg.State.SnapshotTTL, time.Hour)
	cfg.State.CredentialMaxTTL = normalizeTTL(cfg.State.CredentialMaxTTL, 24*time.Hour)
	cfg.State.LockTTL = normalizeTTL(cfg.State.LockTTL, minLockTTL(cfg.Identity.Timeout)+5*time.Second)
	if cfg.State.LockAttempts <= 0 {
		cfg.State.LockAttempts = 20
	}
	if cfg.RateLimit.EventsPerMinute <= 0 {
		cfg.RateLimit.EventsPerMinute = 30
	}
}

// Validate checks the required settings.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Identity.BaseURL == "" {
		return errors.New("identity.base_url is required")
	}
	if c.State.CredentialMaxTTL > 24*time.Hour {
		return errors.New("state.credential_max_ttl must not exceed 24h")
	}
	if floor := minLockTTL(c.Identity.Timeout); c.State.LockTTL < floor {
		return fmt.Errorf("state.lock_ttl must be at least %s (3x identity.timeout)", floor)
	}
	return nil
}

func (c *Config) AdminAddr() string {
	return fmt.Sprintf(":%d", c.Admin.Port)
}

// minLockTTL covers the longest handler: sign-in, exists check and update
// run back to back, each bounded by the identity timeout.
func minLockTTL(identityTimeout time.Duration) time.Duration {
	return 3 * identityTimeout
}

func normalizeTTL(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
