package insights

import (
	"time"

	"cloud.google.com/go/civil"
)

// RowContext carries the fields a canonical row inherits from the job
// invocation rather than the raw record.
type RowContext struct {
	Date      civil.Date
	SpaceID   string
	ProfileID string
	Username  string
}

// ProfileDailyMetric is one day of profile-level metrics for one profile.
// Natural key: (date, profile_id).
type ProfileDailyMetric struct {
	Date            civil.Date `json:"date"`
	SpaceID         string     `json:"space_id"`
	ProfileID       string     `json:"profile_id"`
	ProfileUsername string     `json:"profile_username"`
	Platform        string     `json:"platform"`
	Followers       *int64     `json:"followers"`
	FollowersGained *int64     `json:"followers_gained"`
	Unfollowers     *int64     `json:"unfollowers"`
	ActualGrowth    *int64     `json:"actual_growth"`
	ReachTotal      *int64     `json:"reach_total"`
	ReachOrganic    *int64     `json:"reach_organic"`
	ReachPaid       *int64     `json:"reach_paid"`
	Impressions     *int64     `json:"impressions"`
	ProfileViews    *int64     `json:"profile_views"`
	BioLinkClicks   *int64     `json:"bio_link_clicks"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewProfileDailyMetric builds a canonical profile-daily row from a raw
// insights record. Measures that are absent or unparseable upstream stay
// null in the row.
func NewProfileDailyMetric(rec Record, rc RowContext) *ProfileDailyMetric {
	now := time.Now().UTC()
	username := rc.Username
	if username == "" {
		username = AsString(rec.Get("profile_username"))
	}
	return &ProfileDailyMetric{
		Date:            rc.Date,
		SpaceID:         rc.SpaceID,
		ProfileID:       rc.ProfileID,
		ProfileUsername: username,
		Platform:        PlatformInstagram,
		Followers:       AsInt(rec.Get("followers")),
		FollowersGained: AsInt(rec.Get("followers_gained")),
		Unfollowers:     AsInt(rec.Get("unfollowers")),
		ActualGrowth:    AsInt(rec.Get("actual_growth")),
		ReachTotal:      AsInt(rec.First("reach", "reach_total")),
		ReachOrganic:    AsInt(rec.Get("reach_from_organic")),
		ReachPaid:       AsInt(rec.Get("reach_from_paid")),
		Impressions:     AsInt(rec.Get("impressions")),
		ProfileViews:    AsInt(rec.Get("profile_views")),
		BioLinkClicks:   AsInt(rec.Get("bio_link_clicks")),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// PostDailySnapshot is the cumulative state of one post as observed on one
// day. Natural key: (snapshot_date, post_id).
type PostDailySnapshot struct {
	SnapshotDate         civil.Date `json:"snapshot_date"`
	SpaceID              string     `json:"space_id"`
	ProfileID            string     `json:"profile_id"`
	ProfileUsername      string     `json:"profile_username"`
	PostID               string     `json:"post_id"`
	PostPermalink        string     `json:"post_permalink"`
	PostType             string     `json:"post_type"`
	PostPublishedAt      *time.Time `json:"post_published_at"`
	ReachTotal           *int64     `json:"reach_total"`
	ImpressionsTotal     *int64     `json:"impressions_total"`
	Likes                *int64     `json:"likes"`
	Comments             *int64     `json:"comments"`
	Shares               *int64     `json:"shares"`
	Saves                *int64     `json:"saves"`
	Follows              *int64     `json:"follows"`
	ProfileActivityTotal *int64     `json:"profile_activity_total"`
	BioLinkClicks        *int64     `json:"bio_link_clicks"`
	CreatedAt            time.Time  `json:"created_at"`
}

// NewPostDailySnapshot builds a canonical post-snapshot row from a raw
// insights record. Returns nil when the record carries no post id; such
// records are dropped by the caller rather than failing the batch.
func NewPostDailySnapshot(rec Record, rc RowContext) *PostDailySnapshot {
	postID := AsString(rec.First("post_id", "post"))
	if postID == "" {
		return nil
	}
	return &PostDailySnapshot{
		SnapshotDate:         rc.Date,
		SpaceID:              rc.SpaceID,
		ProfileID:            rc.ProfileID,
		ProfileUsername:      rc.Username,
		PostID:               postID,
		PostPermalink:        AsString(rec.First("post_permalink", "permalink")),
		PostType:             AsString(rec.First("post_type", "type")),
		PostPublishedAt:      AsTime(rec.First("post_published_at", "post_created_at")),
		ReachTotal:           AsInt(rec.Get("post_reach")),
		ImpressionsTotal:     AsInt(rec.Get("post_impressions")),
		Likes:                AsInt(rec.First("post_reactions", "post_likes")),
		Comments:             AsInt(rec.Get("post_comments")),
		Shares:               AsInt(rec.Get("post_shares")),
		Saves:                AsInt(rec.First("post_saved", "post_saves")),
		Follows:              AsInt(rec.Get("post_follows")),
		ProfileActivityTotal: AsInt(rec.Get("post_profile_activity_total")),
		BioLinkClicks:        AsInt(rec.Get("post_profile_activity_bio_link_clicked")),
		CreatedAt:            time.Now().UTC(),
	}
}

// FollowerDemographics is the follower count of one demographic segment of
// one profile on one day. Natural key: (snapshot_date, profile_id,
// age_group, gender, country, city).
type FollowerDemographics struct {
	SnapshotDate    civil.Date `json:"snapshot_date"`
	SpaceID         string     `json:"space_id"`
	ProfileID       string     `json:"profile_id"`
	ProfileUsername string     `json:"profile_username"`
	AgeGroup        string     `json:"age_group"`
	Gender          string     `json:"gender"`
	Country         string     `json:"country"`
	City            string     `json:"city"`
	Followers       *int64     `json:"followers"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewFollowerDemographics builds a canonical demographics row from a raw
// insights record. Segment dimensions that are absent coerce to "" so the
// natural key is always fully populated.
func NewFollowerDemographics(rec Record, rc RowContext) *FollowerDemographics {
	return &FollowerDemographics{
		SnapshotDate:    rc.Date,
		SpaceID:         rc.SpaceID,
		ProfileID:       rc.ProfileID,
		ProfileUsername: rc.Username,
		AgeGroup:        AsString(rec.Get("age")),
		Gender:          AsString(rec.Get("gender")),
		Country:         AsString(rec.Get("country")),
		City:            AsString(rec.Get("city")),
		Followers:       AsInt(rec.Get("followers")),
		CreatedAt:       time.Now().UTC(),
	}
}
