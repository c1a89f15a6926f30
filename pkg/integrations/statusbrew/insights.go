package statusbrew

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/civil"

	"github.com/growthops/statusbrew-pipeline/pkg/insights"
)

// ListProfiles retrieves the social profile descriptors of a space.
func (c *Client) ListProfiles(ctx context.Context, spaceID string) ([]insights.Record, error) {
	path := fmt.Sprintf("/v1/spaces/%s/social_profiles", spaceID)
	return c.request(ctx, http.MethodGet, path, nil)
}

// Insights runs one insights query against a space.
func (c *Client) Insights(ctx context.Context, spaceID string, req InsightsRequest) ([]insights.Record, error) {
	path := fmt.Sprintf("/v1/spaces/%s/insights", spaceID)
	return c.request(ctx, http.MethodPost, path, req)
}

// FetchProfileDailyMetrics fetches the profile-level metric set for one
// profile on one day.
func (c *Client) FetchProfileDailyMetrics(ctx context.Context, spaceID, profileID string, day civil.Date) ([]insights.Record, error) {
	return c.Insights(ctx, spaceID, InsightsRequest{
		Metrics: []string{
			"followers",
			"followers_gained",
			"unfollowers",
			"actual_growth",
			"reach",
			"reach_from_organic",
			"reach_from_paid",
			"impressions",
			"profile_views",
			"bio_link_clicks",
		},
		Dimensions: []string{"date", "profile"},
		TimeRange:  TimeRange{Since: day.String(), Until: day.String()},
		Filters: map[string]any{
			"profile_ids": []string{profileID},
			"platforms":   []string{insights.PlatformInstagram},
		},
		Granularity: "day",
	})
}

// FetchPostSnapshots fetches the post-level metric set for a batch of
// profiles over a reporting window.
func (c *Client) FetchPostSnapshots(ctx context.Context, spaceID string, profileIDs []string, since, until civil.Date) ([]insights.Record, error) {
	return c.Insights(ctx, spaceID, InsightsRequest{
		Metrics: []string{
			"post_reach",
			"post_impressions",
			"post_reactions",
			"post_comments",
			"post_shares",
			"post_saved",
			"post_follows",
			"post_profile_activity_total",
			"post_profile_activity_bio_link_clicked",
		},
		Dimensions: []string{"post", "profile"},
		TimeRange:  TimeRange{Since: since.String(), Until: until.String()},
		Filters: map[string]any{
			"profile_ids": profileIDs,
			"platforms":   []string{insights.PlatformInstagram},
		},
	})
}

// FetchFollowerDemographics fetches follower counts broken down by
// demographic segment for one profile on one day.
func (c *Client) FetchFollowerDemographics(ctx context.Context, spaceID, profileID string, day civil.Date) ([]insights.Record, error) {
	return c.Insights(ctx, spaceID, InsightsRequest{
		Metrics:    []string{"followers"},
		Dimensions: []string{"profile", "gender", "age", "country", "city"},
		TimeRange:  TimeRange{Since: day.String(), Until: day.String()},
		Filters: map[string]any{
			"profile_ids": []string{profileID},
			"platforms":   []string{insights.PlatformInstagram},
		},
	})
}
