// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port     int    `env:"CHOREBOARD_PORT" envDefault:"8080"`
	DBPath   string `env:"CHOREBOARD_DB_PATH" envDefault:"choreboard.db"`
	LogLevel string `env:"CHOREBOARD_LOG_LEVEL" envDefault:"info"`

	// Postmark settings; leave the token empty to disable outbound email.
	PostmarkToken string `env:"CHOREBOARD_POSTMARK_TOKEN"`
	EmailFrom     string `env:"CHOREBOARD_EMAIL_FROM" envDefault:"noreply@localhost"`

	// S3-compatible storage for shame wall images. Endpoint is optional;
	// leave all empty to run without image uploads.
	S3Endpoint  string `env:"CHOREBOARD_S3_ENDPOINT"`
	S3Bucket    string `env:"CHOREBOARD_S3_BUCKET"`
	S3Region    string `env:"CHOREBOARD_S3_REGION" envDefault:"auto"`
	S3AccessKey string `env:"CHOREBOARD_S3_ACCESS_KEY"`
	S3SecretKey string `env:"CHOREBOARD_S3_SECRET_KEY"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
