// Package config parses the process environment once; everything below
// main receives the resulting struct instead of reading env vars.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	Addr       string `env:"ADDR" envDefault:":8080"`
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBUser     string `env:"DB_USER" envDefault:"pocket_user"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"pocket_pass"`
	DBName     string `env:"DB_NAME" envDefault:"pocketauth"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisDB  int    `env:"REDIS_DB" envDefault:"0"`

	NATSURL string `env:"NATS_URL"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
