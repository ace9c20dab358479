package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// WatcherConfig configures the menu watcher CLI. Flags override these values.
type WatcherConfig struct {
	APIURL             string        `env:"CARDAPIO_API_URL" envDefault:"http://localhost:3000"`
	InstanceID         string        `env:"CARDAPIO_INSTANCE_ID"`
	LastUpdateInterval time.Duration `env:"CARDAPIO_WATCH_LASTUPDATE_INTERVAL" envDefault:"3s"`
	SyncInterval       time.Duration `env:"CARDAPIO_WATCH_SYNC_INTERVAL" envDefault:"10s"`
	RequestTimeout     time.Duration `env:"CARDAPIO_WATCH_TIMEOUT" envDefault:"10s"`
	Redis              RedisConfig   `envPrefix:"CARDAPIO_"`
	LogLevel           string        `env:"CARDAPIO_LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"CARDAPIO_LOG_FORMAT" envDefault:"console"`
}

// LoadWatcherEnv reads WatcherConfig from the environment.
func LoadWatcherEnv() (WatcherConfig, error) {
	var cfg WatcherConfig
	if err := env.Parse(&cfg); err != nil {
		return WatcherConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
