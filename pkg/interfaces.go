package shared

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/growthops/statusbrew-pipeline/pkg/insights"
)

// --- Insights API Interfaces ---

// InsightsAPI is the surface of the Statusbrew client the jobs consume.
type InsightsAPI interface {
	ListProfiles(ctx context.Context, spaceID string) ([]insights.Record, error)
	FetchProfileDailyMetrics(ctx context.Context, spaceID, profileID string, day civil.Date) ([]insights.Record, error)
	FetchPostSnapshots(ctx context.Context, spaceID string, profileIDs []string, since, until civil.Date) ([]insights.Record, error)
	FetchFollowerDemographics(ctx context.Context, spaceID, profileID string, day civil.Date) ([]insights.Record, error)
}

// --- Warehouse Interfaces ---

// Warehouse applies one batch of canonical rows per call, keyed by the
// target table's natural key. An empty batch is a no-op.
type Warehouse interface {
	UpsertProfileDaily(ctx context.Context, rows []*insights.ProfileDailyMetric) error
	UpsertPostSnapshots(ctx context.Context, rows []*insights.PostDailySnapshot) error
	UpsertDemographics(ctx context.Context, rows []*insights.FollowerDemographics) error
}

// --- Notification Interfaces ---

// Notifier delivers best-effort run outcome messages. Delivery failure is
// logged, never surfaced to the job.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// --- Secrets Interfaces ---

type SecretStore interface {
	GetSecret(ctx context.Context, projectID, name string) (string, error)
}
