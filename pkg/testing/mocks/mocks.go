package mocks

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/growthops/statusbrew-pipeline/pkg/insights"
)

// --- Mock Insights API ---

type MockInsightsAPI struct {
	ListProfilesFunc              func(ctx context.Context, spaceID string) ([]insights.Record, error)
	FetchProfileDailyMetricsFunc  func(ctx context.Context, spaceID, profileID string, day civil.Date) ([]insights.Record, error)
	FetchPostSnapshotsFunc        func(ctx context.Context, spaceID string, profileIDs []string, since, until civil.Date) ([]insights.Record, error)
	FetchFollowerDemographicsFunc func(ctx context.Context, spaceID, profileID string, day civil.Date) ([]insights.Record, error)
}

func (m *MockInsightsAPI) ListProfiles(ctx context.Context, spaceID string) ([]insights.Record, error) {
	if m.ListProfilesFunc != nil {
		return m.ListProfilesFunc(ctx, spaceID)
	}
	return nil, fmt.Errorf("no profiles configured")
}

func (m *MockInsightsAPI) FetchProfileDailyMetrics(ctx context.Context, spaceID, profileID string, day civil.Date) ([]insights.Record, error) {
	if m.FetchProfileDailyMetricsFunc != nil {
		return m.FetchProfileDailyMetricsFunc(ctx, spaceID, profileID, day)
	}
	return nil, nil
}

func (m *MockInsightsAPI) FetchPostSnapshots(ctx context.Context, spaceID string, profileIDs []string, since, until civil.Date) ([]insights.Record, error) {
	if m.FetchPostSnapshotsFunc != nil {
		return m.FetchPostSnapshotsFunc(ctx, spaceID, profileIDs, since, until)
	}
	return nil, nil
}

func (m *MockInsightsAPI) FetchFollowerDemographics(ctx context.Context, spaceID, profileID string, day civil.Date) ([]insights.Record, error) {
	if m.FetchFollowerDemographicsFunc != nil {
		return m.FetchFollowerDemographicsFunc(ctx, spaceID, profileID, day)
	}
	return nil, nil
}

// --- Mock Warehouse ---

type MockWarehouse struct {
	UpsertProfileDailyFunc  func(ctx context.Context, rows []*insights.ProfileDailyMetric) error
	UpsertPostSnapshotsFunc func(ctx context.Context, rows []*insights.PostDailySnapshot) error
	UpsertDemographicsFunc  func(ctx context.Context, rows []*insights.FollowerDemographics) error

	ProfileDailyRows []*insights.ProfileDailyMetric
	PostSnapshotRows []*insights.PostDailySnapshot
	DemographicsRows []*insights.FollowerDemographics
}

func (m *MockWarehouse) UpsertProfileDaily(ctx context.Context, rows []*insights.ProfileDailyMetric) error {
	m.ProfileDailyRows = rows
	if m.UpsertProfileDailyFunc != nil {
		return m.UpsertProfileDailyFunc(ctx, rows)
	}
	return nil
}

func (m *MockWarehouse) UpsertPostSnapshots(ctx context.Context, rows []*insights.PostDailySnapshot) error {
	m.PostSnapshotRows = rows
	if m.UpsertPostSnapshotsFunc != nil {
		return m.UpsertPostSnapshotsFunc(ctx, rows)
	}
	return nil
}

func (m *MockWarehouse) UpsertDemographics(ctx context.Context, rows []*insights.FollowerDemographics) error {
	m.DemographicsRows = rows
	if m.UpsertDemographicsFunc != nil {
		return m.UpsertDemographicsFunc(ctx, rows)
	}
	return nil
}

// --- Mock Notifier ---

type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
}

func (m *MockNotifier) Notify(ctx context.Context, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, text)
}

// --- Mock Secrets ---

type MockSecretStore struct {
	GetSecretFunc func(ctx context.Context, projectID, name string) (string, error)
}

func (m *MockSecretStore) GetSecret(ctx context.Context, projectID, name string) (string, error) {
	if m.GetSecretFunc != nil {
		return m.GetSecretFunc(ctx, projectID, name)
	}
	return "mock-secret-value", nil
}
