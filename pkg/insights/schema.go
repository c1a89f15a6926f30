package insights

import "cloud.google.com/go/bigquery"

// Warehouse schemas for the three target tables. Key columns are REQUIRED;
// every measure is NULLABLE so absent upstream data stays null.

var ProfileDailySchema = bigquery.Schema{
	{Name: "date", Type: bigquery.DateFieldType, Required: true},
	{Name: "space_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "profile_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "profile_username", Type: bigquery.StringFieldType},
	{Name: "platform", Type: bigquery.StringFieldType, Required: true},
	{Name: "followers", Type: bigquery.IntegerFieldType},
	{Name: "followers_gained", Type: bigquery.IntegerFieldType},
	{Name: "unfollowers", Type: bigquery.IntegerFieldType},
	{Name: "actual_growth", Type: bigquery.IntegerFieldType},
	{Name: "reach_total", Type: bigquery.IntegerFieldType},
	{Name: "reach_organic", Type: bigquery.IntegerFieldType},
	{Name: "reach_paid", Type: bigquery.IntegerFieldType},
	{Name: "impressions", Type: bigquery.IntegerFieldType},
	{Name: "profile_views", Type: bigquery.IntegerFieldType},
	{Name: "bio_link_clicks", Type: bigquery.IntegerFieldType},
	{Name: "created_at", Type: bigquery.TimestampFieldType},
	{Name: "updated_at", Type: bigquery.TimestampFieldType},
}

// ProfileDailyKey is the natural key of the profile daily table.
var ProfileDailyKey = []string{"date", "profile_id"}

var PostSnapshotSchema = bigquery.Schema{
	{Name: "snapshot_date", Type: bigquery.DateFieldType, Required: true},
	{Name: "space_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "profile_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "profile_username", Type: bigquery.StringFieldType},
	{Name: "post_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "post_permalink", Type: bigquery.StringFieldType},
	{Name: "post_type", Type: bigquery.StringFieldType},
	{Name: "post_published_at", Type: bigquery.TimestampFieldType},
	{Name: "reach_total", Type: bigquery.IntegerFieldType},
	{Name: "impressions_total", Type: bigquery.IntegerFieldType},
	{Name: "likes", Type: bigquery.IntegerFieldType},
	{Name: "comments", Type: bigquery.IntegerFieldType},
	{Name: "shares", Type: bigquery.IntegerFieldType},
	{Name: "saves", Type: bigquery.IntegerFieldType},
	{Name: "follows", Type: bigquery.IntegerFieldType},
	{Name: "profile_activity_total", Type: bigquery.IntegerFieldType},
	{Name: "bio_link_clicks", Type: bigquery.IntegerFieldType},
	{Name: "created_at", Type: bigquery.TimestampFieldType},
}

// PostSnapshotKey is the natural key of the post snapshots table.
var PostSnapshotKey = []string{"snapshot_date", "post_id"}

var FollowerDemographicsSchema = bigquery.Schema{
	{Name: "snapshot_date", Type: bigquery.DateFieldType, Required: true},
	{Name: "space_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "profile_id", Type: bigquery.StringFieldType, Required: true},
	{Name: "profile_username", Type: bigquery.StringFieldType},
	{Name: "age_group", Type: bigquery.StringFieldType, Required: true},
	{Name: "gender", Type: bigquery.StringFieldType, Required: true},
	{Name: "country", Type: bigquery.StringFieldType, Required: true},
	{Name: "city", Type: bigquery.StringFieldType, Required: true},
	{Name: "followers", Type: bigquery.IntegerFieldType},
	{Name: "created_at", Type: bigquery.TimestampFieldType},
}

// FollowerDemographicsKey is the natural key of the demographics table.
var FollowerDemographicsKey = []string{"snapshot_date", "profile_id", "age_group", "gender", "country", "city"}
