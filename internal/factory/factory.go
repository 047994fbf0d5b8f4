package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/arcade/internal/dependencies/clock"
	"github.com/mcoot/arcade/internal/dependencies/random"
	"github.com/mcoot/arcade/internal/services/audit"
	"github.com/mcoot/arcade/internal/services/auth"
	"github.com/mcoot/arcade/internal/services/cards"
	"github.com/mcoot/arcade/internal/services/game"
	"github.com/mcoot/arcade/internal/services/login"
	"github.com/mcoot/arcade/internal/storage"
	"github.com/mcoot/arcade/internal/storage/memory"
	"github.com/mcoot/arcade/internal/storage/postgres"
	redisstorage "github.com/mcoot/arcade/internal/storage/redis"
	"github.com/mcoot/arcade/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	CardEngine     *cards.Engine
	AuditRecorder  *audit.Recorder
	AuthService    *auth.Service
	GameController *game.Controller
	WSHandler      *ws.Handler

	// LoginProvider is nil when no identity provider is configured
	LoginProvider login.Provider
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL is the Postgres connection string (required if StorageType is "postgres")
	DatabaseURL string
	// AuditConfig tunes the audit recorder. Zero fields use defaults.
	AuditConfig audit.Config
	// WSConfig tunes the session handler. Zero fields use defaults.
	WSConfig ws.Config
	// LoginProvider authenticates players (optional)
	LoginProvider login.Provider
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(store, clock.New(), random.New(), cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func newStorage(ctx context.Context, cfg Config, logger *slog.Logger) (storage.Storage, error) {
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
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DatabaseURL required when StorageType is postgres")
		}
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, postgres.Migrations()); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return pg, nil
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'postgres'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) (*App, error) {
	recorder, err := audit.New(store, clk, cfg.AuditConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("audit recorder: %w", err)
	}

	engine := cards.New(rnd)
	authService := auth.New(store, clk, rnd, logger)
	gameController := game.NewController(store, engine, recorder, clk, logger)
	wsHandler := ws.NewHandler(authService, gameController, cfg.WSConfig, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		CardEngine:     engine,
		AuditRecorder:  recorder,
		AuthService:    authService,
		GameController: gameController,
		WSHandler:      wsHandler,
		LoginProvider:  cfg.LoginProvider,
	}, nil
}

// Close drains the audit recorder and releases storage.
// Open sessions should be shut down first.
func (a *App) Close() error {
	return errors.Join(a.AuditRecorder.Close(), a.Storage.Close())
}
