package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arena-core/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitTeesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.log")
	Init(config.LogConfig{Level: "debug", File: path, MaxMB: 1})
	defer func() {
		_ = Close()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("GlobalLevel() = %v, want debug", zerolog.GlobalLevel())
	}
	log.Info().Str("arena_id", "a1").Msg("arena ready")
	if _, err := Writer().Write([]byte("{\"msg\":\"raw\"}\n")); err != nil {
		t.Fatalf("Writer().Write: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	got := string(b)
	if !strings.Contains(got, `"arena_id":"a1"`) {
		t.Fatalf("log file missing structured record: %q", got)
	}
	if !strings.Contains(got, `"msg":"raw"`) {
		t.Fatalf("log file missing raw writer record: %q", got)
	}
}

func TestInitIgnoresBadLevel(t *testing.T) {
	Init(config.LogConfig{Level: "loud"})
	defer func() { _ = Close() }()

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("GlobalLevel() = %v, want info", zerolog.GlobalLevel())
	}
}
