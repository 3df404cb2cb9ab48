package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"CARDGATE_HTTP_ADDR" envDefault:":8080"`
	Env      string `env:"CARDGATE_ENV" envDefault:"dev"` // "dev" | "prod"
	DBPath   string `env:"CARDGATE_DB_PATH" envDefault:"./data/cardgate.db"`

	// Reader feed.
	ReaderURL        string `env:"CARDGATE_READER_WS_URL" envDefault:"ws://localhost:8765"`
	ReconnectSeconds int    `env:"CARDGATE_READER_RECONNECT_SECONDS" envDefault:"5"`
	ScanQueueSize    int    `env:"CARDGATE_SCAN_QUEUE_SIZE" envDefault:"16"`

	// Reasoning augmentation.  Disabled by default: a direct permissions
	// lookup decides on its own unless this is switched on.
	ReasoningEnabled        bool   `env:"CARDGATE_REASONING_ENABLED" envDefault:"false"`
	ReasoningURL            string `env:"CARDGATE_REASONING_URL" envDefault:"https://api.openai.com/v1/responses"`
	ReasoningAPIKey         string `env:"CARDGATE_REASONING_API_KEY"`
	ReasoningModel          string `env:"CARDGATE_REASONING_MODEL" envDefault:"gpt-4o-mini"`
	ReasoningTimeoutSeconds int    `env:"CARDGATE_REASONING_TIMEOUT_SECONDS" envDefault:"5"`
}

func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	return cfg, nil
}

func (c Config) ReconnectInterval() time.Duration {
	return time.Duration(c.ReconnectSeconds) * time.Second
}

func (c Config) ReasoningTimeout() time.Duration {
	return time.Duration(c.ReasoningTimeoutSeconds) * time.Second
}
