package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	// Empty disables match result persistence.
	PostgresDSN string `env:"POSTGRES_DSN"`

	GamesConfigPath   string `env:"GAMES_CONFIG_PATH" envDefault:"games.yaml"`
	TickRate          int    `env:"TICK_RATE" envDefault:"20"`
	UpdatePeriodTicks int64  `env:"UPDATE_PERIOD_TICKS" envDefault:"20"`
	LinkTTLSeconds    int    `env:"LINK_TTL_SECONDS" envDefault:"30"`
	ShutdownTimeoutMS int    `env:"SHUTDOWN_TIMEOUT_MS" envDefault:"5000"`
	ResultQueueSize   int    `env:"RESULT_QUEUE_SIZE" envDefault:"256"`
	FeedBufferSize    int    `env:"FEED_BUFFER_SIZE" envDefault:"200"`

	// Match announcements to chat webhooks. Targets come from PUSH_CONFIG_PATH
	// when set, else PUSH_CONFIG_JSON.
	PushEnabled        bool   `env:"PUSH_ENABLED" envDefault:"false"`
	PushConfigPath     string `env:"PUSH_CONFIG_PATH"`
	PushConfigJSON     string `env:"PUSH_CONFIG_JSON"`
	PushConfigReloadMS int    `env:"PUSH_CONFIG_RELOAD_MS" envDefault:"1000"`
	PushWorkers        int    `env:"PUSH_WORKERS" envDefault:"2"`
	PushRetryMax       int    `env:"PUSH_RETRY_MAX" envDefault:"3"`
	PushRetryBaseMS    int    `env:"PUSH_RETRY_BASE_MS" envDefault:"500"`

	// WorldsDir roots map world files. Empty binds maps without loading a
	// world.
	WorldsDir string `env:"WORLDS_DIR"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.TickRate < 1 {
		return ServerConfig{}, fmt.Errorf("TICK_RATE must be positive, got %d", cfg.TickRate)
	}
	if cfg.UpdatePeriodTicks < 1 {
		return ServerConfig{}, fmt.Errorf("UPDATE_PERIOD_TICKS must be positive, got %d", cfg.UpdatePeriodTicks)
	}
	if cfg.LinkTTLSeconds < 1 {
		return ServerConfig{}, fmt.Errorf("LINK_TTL_SECONDS must be positive, got %d", cfg.LinkTTLSeconds)
	}
	return cfg, nil
}

func (c ServerConfig) LinkTTL() time.Duration {
	return time.Duration(c.LinkTTLSeconds) * time.Second
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
