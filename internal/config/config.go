package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the server configuration, read from the environment
type Config struct {
	Host     string `env:"PARADOX_HOST"`
	Port     int    `env:"PARADOX_PORT" envDefault:"8080"`
	LogLevel string `env:"PARADOX_LOG_LEVEL" envDefault:"info"`

	StorageType       string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL          string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisTxMaxRetries int    `env:"REDIS_TX_MAX_RETRIES" envDefault:"32"`
	DatabaseURL       string `env:"DATABASE_URL"`
	SQLitePath        string `env:"SQLITE_PATH" envDefault:"paradox.db"`

	CatalogPath string `env:"PARADOX_CATALOG_PATH"`

	OTelEndpoint string `env:"PARADOX_OTEL_ENDPOINT"`
	ServiceName  string `env:"PARADOX_SERVICE_NAME" envDefault:"paradox"`
}

// Load reads the optional dotenv files, then parses the environment. Values
// already set in the environment win over dotenv files.
func Load(dotenvFiles ...string) (Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PARADOX_PORT out of range: %d", c.Port)
	}
	switch c.StorageType {
	case "memory", "redis", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_TYPE is postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.StorageType)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid PARADOX_LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}
