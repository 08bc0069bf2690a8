package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                  int    `env:"PORT" envDefault:"8080"`
	DatabaseURL           string `env:"DATABASE_URL,required"`
	RedisURL              string `env:"REDIS_URL,required"`
	AdminPasswordHash     string `env:"ADMIN_PASSWORD_HASH"`
	AdminSessionSecret    string `env:"ADMIN_SESSION_SECRET"`
	CryptoAddressSecret   string `env:"CRYPTO_ADDRESS_SECRET"`
	CardConfirmTimeoutSec int    `env:"CARD_CONFIRM_TIMEOUT_SECONDS" envDefault:"10"`
	StaleCardAttemptMin   int    `env:"STALE_CARD_ATTEMPT_MINUTES" envDefault:"30"`
	PeriodResetDays       int    `env:"PERIOD_RESET_DAYS" envDefault:"0"`
	GeneratorIdeaCount    int    `env:"GENERATOR_IDEA_COUNT" envDefault:"5"`
	LogLevel              string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) CardConfirmTimeout() time.Duration {
	return time.Duration(c.CardConfirmTimeoutSec) * time.Second
}

// StaleCardAttemptAge is how long a card attempt may sit pending before the
// cleanup job sweeps it to failed. Crypto attempts are never swept.
func (c *Config) StaleCardAttemptAge() time.Duration {
	return time.Duration(c.StaleCardAttemptMin) * time.Minute
}

// PeriodResetAge returns the usage-period length for the in-process reset
// sweep. Zero means the sweep is disabled and period reset is left to an
// external scheduler.
func (c *Config) PeriodResetAge() time.Duration {
	return time.Duration(c.PeriodResetDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if c.CardConfirmTimeoutSec <= 0 {
		return fmt.Errorf("CARD_CONFIRM_TIMEOUT_SECONDS must be positive")
	}

	if c.StaleCardAttemptMin <= 0 {
		return fmt.Errorf("STALE_CARD_ATTEMPT_MINUTES must be positive")
	}

	if c.GeneratorIdeaCount <= 0 {
		return fmt.Errorf("GENERATOR_IDEA_COUNT must be positive")
	}

	if isProduction {
		if err := validateSecret("ADMIN_SESSION_SECRET", c.AdminSessionSecret); err != nil {
			return err
		}
		if c.CryptoAddressSecret == "" {
			log.Warn().Msg("CRYPTO_ADDRESS_SECRET is empty in production: receiving addresses will be derived from a static seed")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
