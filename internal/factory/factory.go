package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/paradox/internal/api/sse"
	"github.com/mcoot/paradox/internal/dependencies/clock"
	"github.com/mcoot/paradox/internal/dependencies/random"
	"github.com/mcoot/paradox/internal/services/catalog"
	"github.com/mcoot/paradox/internal/services/leaderboard"
	"github.com/mcoot/paradox/internal/services/progression"
	"github.com/mcoot/paradox/internal/storage"
	"github.com/mcoot/paradox/internal/storage/memory"
	redisstorage "github.com/mcoot/paradox/internal/storage/redis"
	"github.com/mcoot/paradox/internal/storage/sqldb"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Engine      *progression.Engine
	Catalog     *catalog.Service
	Leaderboard *leaderboard.Projector

	// Live event feed
	Hub         *sse.Hub
	Broadcaster *sse.Broadcaster
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the Postgres connection string (required if StorageType is "postgres")
	DatabaseURL string
	// SQLitePath is the SQLite database file (required if StorageType is "sqlite")
	SQLitePath string
	// CatalogPath is a JSON seed file loaded into the catalog at startup (optional)
	CatalogPath string
	// EngineConfig tunes the progression engine (optional)
	EngineConfig progression.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := newWithDependencies(store, clock.New(), random.New(), cfg.EngineConfig, logger)

	if cfg.CatalogPath != "" {
		if err := app.Catalog.LoadFromFile(ctx, cfg.CatalogPath); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}

	return app, nil
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		store, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DatabaseURL required when StorageType is postgres")
		}
		store, err := sqldb.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		store, err := sqldb.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be one of memory, redis, postgres, sqlite", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, engineCfg progression.Config, logger *slog.Logger) *App {
	hub := sse.NewHub(logger)
	go hub.Run()
	broadcaster := sse.NewBroadcaster(hub, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Engine:      progression.New(store, clk, rnd, broadcaster, logger, engineCfg),
		Catalog:     catalog.New(store, rnd, logger),
		Leaderboard: leaderboard.New(store, logger),
		Hub:         hub,
		Broadcaster: broadcaster,
	}
}

// Close stops the event hub and releases the storage backend
func (a *App) Close() error {
	a.Hub.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
