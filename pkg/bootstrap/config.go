package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the runtime configuration, loaded once from environment
// variables and passed by reference into each component.
type Config struct {
	GCPProject      string `env:"GCP_PROJECT"`
	BigQueryDataset string `env:"BIGQUERY_DATASET" envDefault:"statusbrew_ig"`

	TableProfileDaily  string `env:"TABLE_PROFILE_DAILY" envDefault:"sb_ig_profile_daily_metrics"`
	TablePostSnapshots string `env:"TABLE_POST_SNAPSHOTS" envDefault:"sb_ig_post_daily_snapshots"`
	TableDemographics  string `env:"TABLE_DEMOGRAPHICS" envDefault:"sb_ig_follower_demographics"`

	StatusbrewBaseURL         string `env:"STATUSBREW_BASE_URL" envDefault:"https://api.statusbrew.com"`
	StatusbrewAccessToken     string `env:"STATUSBREW_ACCESS_TOKEN"`
	StatusbrewTokenSecretName string `env:"STATUSBREW_TOKEN_SECRET_NAME"`
	SecretProjectID           string `env:"SECRET_PROJECT_ID"`

	SpaceIDs []string `env:"SPACE_IDS" envSeparator:","`

	Timezone               string `env:"TIMEZONE" envDefault:"Asia/Tokyo"`
	RecentPostLookbackDays int    `env:"RECENT_POST_LOOKBACK_DAYS" envDefault:"10"`
	HTTPTimeoutSeconds     int    `env:"HTTP_TIMEOUT_SECONDS" envDefault:"60"`
	HTTPRetries            int    `env:"HTTP_RETRIES" envDefault:"3"`

	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"SLACK_CHANNEL"`

	SentryDSN   string `env:"SENTRY_DSN"`
	Environment string `env:"ENVIRONMENT" envDefault:"production"`

	Port int `env:"PORT" envDefault:"8080"`
}

// LoadConfig reads configuration from the environment, loading a local .env
// file first when one exists.
func LoadConfig() (*Config, error) {
	// Missing .env is the normal case in deployed environments.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.SpaceIDs = trimEach(cfg.SpaceIDs)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GCPProject == "" {
		return errors.New("GCP_PROJECT is required")
	}
	if len(c.SpaceIDs) == 0 {
		return errors.New("SPACE_IDS is required")
	}
	if c.StatusbrewAccessToken == "" && c.StatusbrewTokenSecretName == "" {
		return errors.New("set STATUSBREW_ACCESS_TOKEN or STATUSBREW_TOKEN_SECRET_NAME")
	}
	return nil
}

// Location resolves the configured reporting time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// HTTPTimeout returns the outbound HTTP timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func trimEach(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
