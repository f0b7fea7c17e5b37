package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName           = "GainVault"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultAccrualCron       = "5 0 * * *"
	defaultCurrency          = "USD"
	defaultMinWithdrawal     = int64(1_000)
	defaultRegistrationBonus = int64(500)
	defaultApplyMaxRetries   = 3
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Engine policy knobs. Amounts are in cents.
	DefaultCurrency   string
	AccrualCron       string
	MinWithdrawal     int64
	RegistrationBonus int64
	ApplyMaxRetries   int
	TierDemotion      bool
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
		DefaultCurrency:   getEnv("DEFAULT_CURRENCY", defaultCurrency),
		AccrualCron:       getEnv("ACCRUAL_CRON", defaultAccrualCron),
		MinWithdrawal:     defaultMinWithdrawal,
		RegistrationBonus: defaultRegistrationBonus,
		ApplyMaxRetries:   defaultApplyMaxRetries,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.MinWithdrawal, err = int64Env("WITHDRAW_MIN_CENTS", cfg.MinWithdrawal); err != nil {
		return Config{}, err
	}
	if cfg.RegistrationBonus, err = int64Env("REGISTRATION_BONUS_CENTS", cfg.RegistrationBonus); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("APPLY_MAX_RETRIES"); v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid APPLY_MAX_RETRIES: %w", err)
		}
		cfg.ApplyMaxRetries = retries
	}

	switch strings.ToLower(os.Getenv("TIER_DEMOTION")) {
	case "1", "true", "yes":
		cfg.TierDemotion = true
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
