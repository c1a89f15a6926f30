// Package jobs drives the three ingestion jobs: profile daily metrics,
// post snapshots and follower demographics. Each run is stateless and
// idempotent: re-running a job for the same date re-asserts the same
// warehouse state through the merge's update-on-match behavior.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"

	shared "github.com/growthops/statusbrew-pipeline/pkg"
	"github.com/growthops/statusbrew-pipeline/pkg/bootstrap"
	"github.com/growthops/statusbrew-pipeline/pkg/insights"
)

// RunSummary is the outcome of one job invocation.
type RunSummary struct {
	RowCount int        `json:"row_count"`
	Date     civil.Date `json:"date"`
}

// Runner executes ingestion jobs. Runs are sequential within one
// invocation; concurrent invocations for overlapping dates are not
// serialized at this layer and resolve as last-writer-wins.
type Runner struct {
	cfg       *bootstrap.Config
	location  *time.Location
	api       shared.InsightsAPI
	warehouse shared.Warehouse
	notifier  shared.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

func NewRunner(cfg *bootstrap.Config, loc *time.Location, api shared.InsightsAPI, warehouse shared.Warehouse, notifier shared.Notifier, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		location:  loc,
		api:       api,
		warehouse: warehouse,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *Runner) today() civil.Date {
	return civil.DateOf(r.now().In(r.location))
}

func (r *Runner) yesterday() civil.Date {
	return civil.DateOf(r.now().In(r.location).AddDate(0, 0, -1))
}

// instagramProfiles lists a space's profiles filtered to the supported
// platform. Descriptors without a profile id are dropped with a warning.
func (r *Runner) instagramProfiles(ctx context.Context, spaceID string) ([]insights.Record, error) {
	profiles, err := r.api.ListProfiles(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	matched := make([]insights.Record, 0, len(profiles))
	for _, p := range profiles {
		if insights.ProfilePlatform(p) != insights.PlatformInstagram {
			continue
		}
		if insights.ProfileID(p) == "" {
			r.logger.Warn("Profile id missing, skipping profile", "space_id", spaceID, "profile", p)
			continue
		}
		matched = append(matched, p)
	}
	return matched, nil
}

// RunProfileDaily ingests profile-level metrics for one reporting date,
// defaulting to yesterday in the configured time zone.
func (r *Runner) RunProfileDaily(ctx context.Context, override *civil.Date) (*RunSummary, error) {
	target := r.yesterday()
	if override != nil {
		target = *override
	}

	var rows []*insights.ProfileDailyMetric
	for _, spaceID := range r.cfg.SpaceIDs {
		profiles, err := r.instagramProfiles(ctx, spaceID)
		if err != nil {
			return nil, err
		}
		for _, profile := range profiles {
			profileID := insights.ProfileID(profile)
			records, err := r.api.FetchProfileDailyMetrics(ctx, spaceID, profileID, target)
			if err != nil {
				return nil, err
			}
			for _, rec := range records {
				rows = append(rows, insights.NewProfileDailyMetric(rec, insights.RowContext{
					Date:      target,
					SpaceID:   spaceID,
					ProfileID: profileID,
					Username:  insights.ProfileUsername(profile),
				}))
			}
		}
	}

	if err := r.warehouse.UpsertProfileDaily(ctx, rows); err != nil {
		return nil, err
	}
	r.notifier.Notify(ctx, fmt.Sprintf("[ProfileDaily] Upserted %d rows for %s", len(rows), target))
	return &RunSummary{RowCount: len(rows), Date: target}, nil
}

// RunPostSnapshots ingests post-level metrics for one snapshot date,
// defaulting to today, over a lookback window that captures recently
// published posts.
func (r *Runner) RunPostSnapshots(ctx context.Context, override *civil.Date) (*RunSummary, error) {
	snapshot := r.today()
	if override != nil {
		snapshot = *override
	}
	since := snapshot.AddDays(-r.cfg.RecentPostLookbackDays)

	var rows []*insights.PostDailySnapshot
	for _, spaceID := range r.cfg.SpaceIDs {
		profiles, err := r.instagramProfiles(ctx, spaceID)
		if err != nil {
			return nil, err
		}
		if len(profiles) == 0 {
			continue
		}

		profileIDs := make([]string, 0, len(profiles))
		usernames := make(map[string]string, len(profiles))
		for _, profile := range profiles {
			id := insights.ProfileID(profile)
			profileIDs = append(profileIDs, id)
			usernames[id] = insights.ProfileUsername(profile)
		}

		records, err := r.api.FetchPostSnapshots(ctx, spaceID, profileIDs, since, snapshot)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			profileID := insights.AsString(rec.First("profile_id", "profile"))
			row := insights.NewPostDailySnapshot(rec, insights.RowContext{
				Date:      snapshot,
				SpaceID:   spaceID,
				ProfileID: profileID,
				Username:  usernames[profileID],
			})
			if row == nil {
				r.logger.Warn("Post id missing, dropping record", "space_id", spaceID, "record", rec)
				continue
			}
			rows = append(rows, row)
		}
	}

	if err := r.warehouse.UpsertPostSnapshots(ctx, rows); err != nil {
		return nil, err
	}
	r.notifier.Notify(ctx, fmt.Sprintf("[PostSnapshots] Upserted %d rows for %s", len(rows), snapshot))
	return &RunSummary{RowCount: len(rows), Date: snapshot}, nil
}

// RunFollowerDemographics ingests follower demographic segments for one
// snapshot date, defaulting to today.
func (r *Runner) RunFollowerDemographics(ctx context.Context, override *civil.Date) (*RunSummary, error) {
	snapshot := r.today()
	if override != nil {
		snapshot = *override
	}

	var rows []*insights.FollowerDemographics
	for _, spaceID := range r.cfg.SpaceIDs {
		profiles, err := r.instagramProfiles(ctx, spaceID)
		if err != nil {
			return nil, err
		}
		for _, profile := range profiles {
			profileID := insights.ProfileID(profile)
			records, err := r.api.FetchFollowerDemographics(ctx, spaceID, profileID, snapshot)
			if err != nil {
				return nil, err
			}
			for _, rec := range records {
				rows = append(rows, insights.NewFollowerDemographics(rec, insights.RowContext{
					Date:      snapshot,
					SpaceID:   spaceID,
					ProfileID: profileID,
					Username:  insights.ProfileUsername(profile),
				}))
			}
		}
	}

	if err := r.warehouse.UpsertDemographics(ctx, rows); err != nil {
		return nil, err
	}
	r.notifier.Notify(ctx, fmt.Sprintf("[Demographics] Upserted %d rows for %s", len(rows), snapshot))
	return &RunSummary{RowCount: len(rows), Date: snapshot}, nil
}
