// Package config loads service configuration from an optional YAML file,
// applies defaults, and lets environment variables override the secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = "8080"
	defaultDatabaseURL  = "user=postgres password=password dbname=dailybrief host=localhost port=5432 sslmode=disable"
	defaultSendGridFrom = "digest@lakonic.dev"
	defaultSendGridName = "Daily Brief"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultFetchSecs    = 20
)

// Config holds all application configuration.
type Config struct {
	Port              string `yaml:"port"`
	DatabaseURL       string `yaml:"database_url"`
	SendGridAPIKey    string `yaml:"sendgrid_api_key"`
	SendGridFromEmail string `yaml:"sendgrid_from_email"`
	SendGridFromName  string `yaml:"sendgrid_from_name"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	OpenAIModel       string `yaml:"openai_model"`
	FetchTimeoutSecs  int    `yaml:"fetch_timeout_secs"`
	RunCron           bool   `yaml:"run_cron"`
}

// Load reads configuration from the YAML file at path (when it exists),
// applies defaults and environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{RunCron: true}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config yaml: %w", err)
			}
		case os.IsNotExist(err):
			// Env-only deployments run without a file.
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Path returns the config file path from the environment or the default.
func Path() string {
	if path := os.Getenv("DAILYBRIEF_CONFIG"); path != "" {
		return path
	}
	return "./config.yaml"
}

// FetchTimeout returns the content-fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

func applyDefaults(cfg *Config) {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	if cfg.SendGridFromEmail == "" {
		cfg.SendGridFromEmail = defaultSendGridFrom
	}
	if cfg.SendGridFromName == "" {
		cfg.SendGridFromName = defaultSendGridName
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = defaultOpenAIModel
	}
	if cfg.FetchTimeoutSecs == 0 {
		cfg.FetchTimeoutSecs = defaultFetchSecs
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if dbURL := os.Getenv("DB_CONNECTION_STRING"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if key := os.Getenv("SENDGRID_API_KEY"); key != "" {
		cfg.SendGridAPIKey = key
	}
	if from := os.Getenv("SENDGRID_FROM_EMAIL"); from != "" {
		cfg.SendGridFromEmail = from
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.OpenAIAPIKey = key
	}
}

func validate(cfg *Config) error {
	if cfg.FetchTimeoutSecs < 0 {
		return fmt.Errorf("fetch_timeout_secs must not be negative, got %d", cfg.FetchTimeoutSecs)
	}
	return nil
}
