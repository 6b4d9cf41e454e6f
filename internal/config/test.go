package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// TestConfig is read by Postgres-backed tests only.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	if err := env.Parse(&cfg); err != nil {
		return TestConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
