package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP         HTTP
		Log          Log
		PG           PG
		RMQ          RMQ
		Continuation Continuation
		Swagger      Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	RMQ struct {
		URL             string        `env:"RMQ_URL,required"`
		ChannelPoolSize int           `env:"RMQ_CHANNEL_POOL_SIZE" envDefault:"8"`
		ConnAttempts    int           `env:"RMQ_CONN_ATTEMPTS" envDefault:"10"`
		ConnTimeout     time.Duration `env:"RMQ_CONN_TIMEOUT" envDefault:"1s"`
	}

	Continuation struct {
		// Deliberately shorter than an interactive wait: missing the window
		// only skips the follow-on event.
		WaitTimeout     time.Duration `env:"CONTINUATION_WAIT_TIMEOUT" envDefault:"30s"`
		ShutdownTimeout time.Duration `env:"CONTINUATION_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
