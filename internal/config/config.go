package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `env:"TURNSTILE_HTTP_ADDR" envDefault:":8080"`
	Env      string `env:"TURNSTILE_ENV" envDefault:"dev"` // "dev" | "prod"
	DBPath   string `env:"TURNSTILE_DB_PATH" envDefault:"./data/turnstile.db"`

	// Counter primary backend (Redis).  RedisDisabled skips the primary
	// entirely and runs the counter on its in-memory fallback.
	RedisAddr      string        `env:"TURNSTILE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string        `env:"TURNSTILE_REDIS_PASSWORD"`
	RedisDisabled  bool          `env:"TURNSTILE_REDIS_DISABLED"`
	CounterTimeout time.Duration `env:"TURNSTILE_COUNTER_TIMEOUT" envDefault:"500ms"`

	// JWTSecret verifies staff tokens minted by the identity service.
	// Empty disables auth (dev only).
	JWTSecret string `env:"TURNSTILE_JWT_SECRET"`

	SeedDev bool `env:"TURNSTILE_SEED_DEV"`
}

// Load reads configuration from the environment, after loading an
// optional .env file.  A missing .env is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}

	if cfg.Env == "prod" && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("TURNSTILE_JWT_SECRET is required in prod")
	}

	return cfg, nil
}
