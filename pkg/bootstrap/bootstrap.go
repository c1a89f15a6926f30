// Package bootstrap wires configuration, logging and the standard service
// dependencies for the pipeline.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"

	shared "github.com/growthops/statusbrew-pipeline/pkg"
	bq "github.com/growthops/statusbrew-pipeline/pkg/infrastructure/bigquery"
	"github.com/growthops/statusbrew-pipeline/pkg/infrastructure/secrets"
	"github.com/growthops/statusbrew-pipeline/pkg/infrastructure/slack"
	"github.com/growthops/statusbrew-pipeline/pkg/integrations/statusbrew"
)

// Service holds initialized dependencies
type Service struct {
	Config     *Config
	Location   *time.Location
	Statusbrew *statusbrew.Client
	Warehouse  *bq.Adapter
	Notifier   shared.Notifier
	Secrets    shared.SecretStore
	Logger     *slog.Logger
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// NewLogger creates a configured logger instance
func NewLogger(serviceName string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := GetSlogHandlerOptions(level)
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler).With("service", serviceName)
}

// ResolveToken returns the Statusbrew access token from configuration,
// falling back to Secret Manager when only a secret name is set.
func ResolveToken(ctx context.Context, cfg *Config, store shared.SecretStore) (string, error) {
	if cfg.StatusbrewAccessToken != "" {
		return cfg.StatusbrewAccessToken, nil
	}
	project := cfg.SecretProjectID
	if project == "" {
		project = cfg.GCPProject
	}
	token, err := store.GetSecret(ctx, project, cfg.StatusbrewTokenSecretName)
	if err != nil {
		return "", fmt.Errorf("resolve statusbrew token: %w", err)
	}
	return token, nil
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context, logger *slog.Logger) (*Service, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	logger.Info("Initializing service", "project_id", cfg.GCPProject, "dataset", cfg.BigQueryDataset)

	secretStore := &secrets.SecretsAdapter{}
	token, err := ResolveToken(ctx, cfg, secretStore)
	if err != nil {
		return nil, err
	}

	sbClient := statusbrew.NewClient(statusbrew.Options{
		BaseURL:     cfg.StatusbrewBaseURL,
		AccessToken: token,
		Timeout:     cfg.HTTPTimeout(),
		MaxAttempts: cfg.HTTPRetries,
		Logger:      logger,
	})

	bqClient, err := bigquery.NewClient(ctx, cfg.GCPProject)
	if err != nil {
		return nil, fmt.Errorf("bigquery init: %w", err)
	}
	warehouse := bq.NewAdapter(bqClient, cfg.GCPProject, cfg.BigQueryDataset, bq.Tables{
		ProfileDaily:  cfg.TableProfileDaily,
		PostSnapshots: cfg.TablePostSnapshots,
		Demographics:  cfg.TableDemographics,
	}, logger)

	notifier := slack.NewNotifier(cfg.SlackWebhookURL, cfg.SlackChannel, logger)

	return &Service{
		Config:     cfg,
		Location:   loc,
		Statusbrew: sbClient,
		Warehouse:  warehouse,
		Notifier:   notifier,
		Secrets:    secretStore,
		Logger:     logger,
	}, nil
}
