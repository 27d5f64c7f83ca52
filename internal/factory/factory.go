package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/ghoulgame/internal/api"
	"github.com/mcoot/ghoulgame/internal/dependencies/clock"
	"github.com/mcoot/ghoulgame/internal/dependencies/random"
	"github.com/mcoot/ghoulgame/internal/gateway"
	"github.com/mcoot/ghoulgame/internal/services/auth"
	"github.com/mcoot/ghoulgame/internal/services/lobby"
	"github.com/mcoot/ghoulgame/internal/services/roles"
	"github.com/mcoot/ghoulgame/internal/services/session"
	"github.com/mcoot/ghoulgame/internal/services/timer"
	"github.com/mcoot/ghoulgame/internal/storage"
	"github.com/mcoot/ghoulgame/internal/storage/memory"
	redisstorage "github.com/mcoot/ghoulgame/internal/storage/redis"
	"github.com/mcoot/ghoulgame/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger

	// Services
	Scheduler   *timer.Scheduler
	Machine     *session.Machine
	Registry    *lobby.Registry
	AuthService *auth.Service

	// Transport
	Gateway    *gateway.Gateway
	Dispatcher *gateway.Dispatcher
}

// Config holds configuration for the application factory
type Config struct {
	// GameConfig holds the game timing rules (optional)
	// If zero value, defaults to session.DefaultConfig()
	GameConfig session.Config
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the archive backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	gameCfg := cfg.GameConfig
	if gameCfg == (session.Config{}) {
		gameCfg = session.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), gameCfg, cfg.AuthConfig, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, gameCfg session.Config, authCfg auth.Config, logger *slog.Logger) *App {
	gw := gateway.New(clk, logger)
	scheduler := timer.NewScheduler(clk, logger)
	machine := session.NewMachine(gameCfg, scheduler, roles.NewAssigner(rnd), store, gw, clk, rnd, logger)
	authService := auth.New(clk, authCfg)
	registry := lobby.NewRegistry(machine, authService, gw, clk, rnd, logger)
	dispatcher := gateway.NewDispatcher(registry, gw, clk, logger)

	// A dropped connection leaves whatever session it was in
	gw.OnDisconnect(registry.RemoveConnection)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Logger:      logger,
		Scheduler:   scheduler,
		Machine:     machine,
		Registry:    registry,
		AuthService: authService,
		Gateway:     gw,
		Dispatcher:  dispatcher,
	}
}

// Router builds the HTTP API for the app. Join links in QR codes are built on publicURL.
func (a *App) Router(publicURL string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:      a.Logger,
		AuthService: a.AuthService,
		Registry:    a.Registry,
		Gateway:     a.Gateway,
		Dispatcher:  a.Dispatcher,
		Storage:     a.Storage,
		PublicURL:   publicURL,
	})
}

// Close shuts sessions down, drops every connection and releases the archive backend
func (a *App) Close(ctx context.Context) error {
	a.Registry.Close(ctx)
	a.Gateway.Close(ctx)
	return a.Storage.Close()
}
