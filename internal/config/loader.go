package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the room access service.
type Config struct {
	Environment          string        `env:"ROOMACCESS_ENV" envDefault:"development"`
	HTTPPort             int           `env:"ROOMACCESS_HTTP_PORT" envDefault:"8080"`
	DatabaseDSN          string        `env:"ROOMACCESS_DATABASE_DSN" envDefault:"file:roomaccess.db?_pragma=foreign_keys(1)"`
	SessionSecret        string        `env:"ROOMACCESS_SESSION_SECRET"`
	SessionTTL           time.Duration `env:"ROOMACCESS_SESSION_TTL" envDefault:"24h"`
	AccessTokenTTL       time.Duration `env:"ROOMACCESS_ACCESS_TOKEN_TTL" envDefault:"15m"`
	TokenIssuer          string        `env:"ROOMACCESS_TOKEN_ISSUER" envDefault:"roomaccess"`
	SessionPruneInterval time.Duration `env:"ROOMACCESS_SESSION_PRUNE_INTERVAL" envDefault:"10m"`
	CORSOrigins          []string      `env:"ROOMACCESS_CORS_ORIGINS" envSeparator:","`
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load parses configuration values from the current process environment.
//
// A .env file in the working directory is loaded first when present; values
// already set in the environment take precedence over the file. Missing
// required values and invalid entries are reported together.
func Load() (Config, error) {
	_ = godotenv.Load(".env")
	return Parse()
}

// Parse reads configuration from the process environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("environment variables are invalid: %w", err)
	}

	cfg.Environment = strings.TrimSpace(cfg.Environment)
	cfg.DatabaseDSN = strings.TrimSpace(cfg.DatabaseDSN)
	cfg.SessionSecret = strings.TrimSpace(cfg.SessionSecret)
	cfg.TokenIssuer = strings.TrimSpace(cfg.TokenIssuer)
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if cfg.SessionSecret == "" {
		missing = append(missing, "ROOMACCESS_SESSION_SECRET")
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "ROOMACCESS_HTTP_PORT")
	}
	if cfg.DatabaseDSN == "" {
		invalid = append(invalid, "ROOMACCESS_DATABASE_DSN")
	}
	if cfg.SessionTTL <= 0 {
		invalid = append(invalid, "ROOMACCESS_SESSION_TTL")
	}
	if cfg.AccessTokenTTL <= 0 {
		invalid = append(invalid, "ROOMACCESS_ACCESS_TOKEN_TTL")
	}
	if cfg.SessionPruneInterval <= 0 {
		invalid = append(invalid, "ROOMACCESS_SESSION_PRUNE_INTERVAL")
	}
	if cfg.TokenIssuer == "" {
		invalid = append(invalid, "ROOMACCESS_TOKEN_ISSUER")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

type storageConfig struct {
	DatabaseDSN string `env:"ROOMACCESS_DATABASE_DSN" envDefault:"file:roomaccess.db?_pragma=foreign_keys(1)"`
}

// DatabaseDSN reads only the database DSN, for commands that never serve
// HTTP and so do not need a session secret. A .env file is honored as in Load.
func DatabaseDSN() (string, error) {
	_ = godotenv.Load(".env")

	var cfg storageConfig
	if err := env.Parse(&cfg); err != nil {
		return "", fmt.Errorf("environment variables are invalid: %w", err)
	}
	dsn := strings.TrimSpace(cfg.DatabaseDSN)
	if dsn == "" {
		return "", fmt.Errorf("environment variables have invalid values: ROOMACCESS_DATABASE_DSN")
	}
	return dsn, nil
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
