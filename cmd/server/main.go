package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/ghoulgame/internal/api"
	"github.com/mcoot/ghoulgame/internal/config"
	"github.com/mcoot/ghoulgame/internal/factory"
	"github.com/mcoot/ghoulgame/internal/services/auth"
	"github.com/mcoot/ghoulgame/internal/services/session"
	redisstorage "github.com/mcoot/ghoulgame/internal/storage/redis"
)

const (
	reaperInterval     = 30 * time.Second
	revocationInterval = 10 * time.Minute
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		GameConfig: session.Config{
			NightDuration: cfg.NightTimeout,
			DayDuration:   cfg.DayTimeout,
			DefenseDelay:  cfg.DefenseDelay,
			MinPlayers:    cfg.MinPlayers,
		},
		AuthConfig: auth.Config{
			Secret:   cfg.TokenSecret,
			TokenTTL: cfg.TokenTTL,
		},
		Logger:      logger,
		StorageType: cfg.StorageType,
		SQLitePath:  cfg.SQLitePath,
	}
	if cfg.StorageType == config.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.RecordTTL = cfg.RedisTTL
		factoryCfg.RedisConfig = &redisCfg
	}
	if cfg.TokenSecret == "" {
		logger.Warn("GHOUL_TOKEN_SECRET not set, tokens will not survive a restart")
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(app.Router(cfg.PublicURL), serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go app.Gateway.RunReaper(ctx, reaperInterval, cfg.ConnectionIdleTimeout)
	go cleanRevocations(ctx, app.AuthService)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.String("public_url", cfg.PublicURL),
	)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	// Sessions go first so dropped connections do not count as players leaving.
	// Ending every connection then lets open event streams return so the server can drain.
	app.Registry.Close(shutdownCtx)
	app.Gateway.Close(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := app.Close(shutdownCtx); err != nil {
		logger.Error("close error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func cleanRevocations(ctx context.Context, authService *auth.Service) {
	ticker := time.NewTicker(revocationInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			authService.CleanExpiredRevocations()
		}
	}
}
