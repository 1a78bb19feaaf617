// Package config loads settings from an optional config.yml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string        `mapstructure:"PORT"`
	DBPath             string        `mapstructure:"DB_PATH"`
	Env                string        `mapstructure:"APP_ENV"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	SessionPurge       time.Duration `mapstructure:"SESSION_PURGE_INTERVAL"`
	SessionCookie      string        `mapstructure:"SESSION_COOKIE"`
	CookieSecure       bool          `mapstructure:"COOKIE_SECURE"`
	PasswordIterations int           `mapstructure:"PASSWORD_ITERATIONS"`
}

// Load reads config.yml from the working directory if present, then lets
// environment variables override each key.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "blog.db")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_PURGE_INTERVAL", "1h")
	v.SetDefault("SESSION_COOKIE", "session_id")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("PASSWORD_ITERATIONS", 600000)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.SessionPurge <= 0 {
		return errors.New("SESSION_PURGE_INTERVAL must be positive")
	}
	if c.SessionCookie == "" {
		return errors.New("SESSION_COOKIE is required")
	}
	if c.PasswordIterations < 1000 {
		return errors.New("PASSWORD_ITERATIONS must be at least 1000")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}
