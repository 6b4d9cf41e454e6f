package config

import (
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.TickRate != 20 {
		t.Fatalf("TickRate = %d, want 20", cfg.TickRate)
	}
	if cfg.UpdatePeriodTicks != 20 {
		t.Fatalf("UpdatePeriodTicks = %d, want 20", cfg.UpdatePeriodTicks)
	}
	if cfg.LinkTTL() != 30*time.Second {
		t.Fatalf("LinkTTL() = %v, want 30s", cfg.LinkTTL())
	}
	if cfg.GamesConfigPath != "games.yaml" {
		t.Fatalf("GamesConfigPath = %q, want games.yaml", cfg.GamesConfigPath)
	}
}

func TestLoadServerPostgresOptional(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.PostgresDSN != "" {
		t.Fatalf("PostgresDSN = %q, want empty", cfg.PostgresDSN)
	}
}

func TestLoadServerParseTypes(t *testing.T) {
	t.Setenv("TICK_RATE", "40")
	t.Setenv("LINK_TTL_SECONDS", "90")
	t.Setenv("SHUTDOWN_TIMEOUT_MS", "1500")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.TickRate != 40 {
		t.Fatalf("TickRate = %d, want 40", cfg.TickRate)
	}
	if cfg.LinkTTL() != 90*time.Second {
		t.Fatalf("LinkTTL() = %v, want 90s", cfg.LinkTTL())
	}
	if cfg.ShutdownTimeout() != 1500*time.Millisecond {
		t.Fatalf("ShutdownTimeout() = %v, want 1.5s", cfg.ShutdownTimeout())
	}
}

func TestLoadServerRejectsZeroTickRate(t *testing.T) {
	t.Setenv("TICK_RATE", "0")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerRejectsMalformedNumber(t *testing.T) {
	t.Setenv("UPDATE_PERIOD_TICKS", "soon")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}

func TestLoadServerStreamAndPushSettings(t *testing.T) {
	t.Setenv("FEED_BUFFER_SIZE", "50")
	t.Setenv("WORLDS_DIR", "/srv/worlds")
	t.Setenv("PUSH_ENABLED", "true")
	t.Setenv("PUSH_CONFIG_PATH", "/etc/arena/push.json")
	t.Setenv("PUSH_RETRY_MAX", "5")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.FeedBufferSize != 50 || cfg.WorldsDir != "/srv/worlds" {
		t.Fatalf("feed/worlds = %d/%q", cfg.FeedBufferSize, cfg.WorldsDir)
	}
	if !cfg.PushEnabled || cfg.PushConfigPath != "/etc/arena/push.json" || cfg.PushRetryMax != 5 {
		t.Fatalf("push = %v/%q/%d", cfg.PushEnabled, cfg.PushConfigPath, cfg.PushRetryMax)
	}
	if cfg.PushWorkers != 2 || cfg.PushRetryBaseMS != 500 || cfg.PushConfigReloadMS != 1000 {
		t.Fatalf("push defaults = %d/%d/%d", cfg.PushWorkers, cfg.PushRetryBaseMS, cfg.PushConfigReloadMS)
	}
}
