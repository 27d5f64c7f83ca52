package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Storage backends for the finished-game archive
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// Server is the game server's environment configuration
type Server struct {
	Host      string `env:"GHOUL_HOST"`
	Port      int    `env:"GHOUL_PORT" envDefault:"8080"`
	PublicURL string `env:"GHOUL_PUBLIC_URL" envDefault:"http://localhost:8080"`
	LogLevel  string `env:"GHOUL_LOG_LEVEL" envDefault:"info"`

	StorageType  string        `env:"GHOUL_STORAGE_TYPE" envDefault:"memory"`
	RedisURL     string        `env:"GHOUL_REDIS_URL"`
	RedisTTL     time.Duration `env:"GHOUL_REDIS_RECORD_TTL" envDefault:"168h"`
	SQLitePath   string        `env:"GHOUL_SQLITE_PATH" envDefault:"ghoul.db"`
	NightTimeout time.Duration `env:"GHOUL_NIGHT_DURATION" envDefault:"60s"`
	DayTimeout   time.Duration `env:"GHOUL_DAY_DURATION" envDefault:"3m"`
	DefenseDelay time.Duration `env:"GHOUL_DEFENSE_DELAY" envDefault:"10s"`
	MinPlayers   int           `env:"GHOUL_MIN_PLAYERS" envDefault:"5"`

	TokenSecret string        `env:"GHOUL_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"GHOUL_TOKEN_TTL" envDefault:"12h"`

	ConnectionIdleTimeout time.Duration `env:"GHOUL_CONNECTION_IDLE_TIMEOUT" envDefault:"5m"`
}

// LoadServer reads an optional .env file and then the environment
func LoadServer() (Server, error) {
	var cfg Server
	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot
func (c Server) Validate() error {
	switch c.StorageType {
	case StorageTypeMemory, StorageTypeSQLite:
	case StorageTypeRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("GHOUL_REDIS_URL is required when GHOUL_STORAGE_TYPE=%s", StorageTypeRedis)
		}
	default:
		return fmt.Errorf("invalid GHOUL_STORAGE_TYPE %q: must be memory, redis or sqlite", c.StorageType)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid GHOUL_PORT %d", c.Port)
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("GHOUL_MIN_PLAYERS must be at least 2, got %d", c.MinPlayers)
	}
	for name, d := range map[string]time.Duration{
		"GHOUL_NIGHT_DURATION":          c.NightTimeout,
		"GHOUL_DAY_DURATION":            c.DayTimeout,
		"GHOUL_DEFENSE_DELAY":           c.DefenseDelay,
		"GHOUL_TOKEN_TTL":               c.TokenTTL,
		"GHOUL_CONNECTION_IDLE_TIMEOUT": c.ConnectionIdleTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel converts a level name to a slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid GHOUL_LOG_LEVEL %q", level)
	}
}
