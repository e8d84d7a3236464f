package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full server configuration, read from the environment with an
// optional .env file underneath for local development.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	EnableWebsocket bool `env:"ENABLE_WEBSOCKET" envDefault:"true"`
	EnableSSE       bool `env:"ENABLE_SSE" envDefault:"true"`
}

func Load() (Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if !cfg.EnableWebsocket && !cfg.EnableSSE {
		return Config{}, errors.New("at least one realtime transport must be enabled")
	}
	return cfg, nil
}

// Persistence reports whether a database is configured. Without one the
// server runs purely in memory and games vanish on restart.
func (c Config) Persistence() bool {
	return c.PostgresDSN != ""
}
