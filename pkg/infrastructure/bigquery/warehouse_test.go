package bigquery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/growthops/statusbrew-pipeline/pkg/insights"
)

// --- Mock api ---

type mockAPI struct {
	calls []string

	loadFunc   func(ctx context.Context, table string, schema bigquery.Schema, data []byte) error
	runFunc    func(ctx context.Context, query string, params []bigquery.QueryParameter) error
	readFunc   func(ctx context.Context, query string, params []bigquery.QueryParameter) (rowIterator, error)
	deleteFunc func(ctx context.Context, table string) error

	loadedTable string
	loadedData  []byte
	ranQuery    string
	deleted     []string
}

func (m *mockAPI) load(ctx context.Context, table string, schema bigquery.Schema, data []byte) error {
	m.calls = append(m.calls, "load")
	m.loadedTable = table
	m.loadedData = data
	if m.loadFunc != nil {
		return m.loadFunc(ctx, table, schema, data)
	}
	return nil
}

func (m *mockAPI) run(ctx context.Context, query string, params []bigquery.QueryParameter) error {
	m.calls = append(m.calls, "run")
	m.ranQuery = query
	if m.runFunc != nil {
		return m.runFunc(ctx, query, params)
	}
	return nil
}

func (m *mockAPI) read(ctx context.Context, query string, params []bigquery.QueryParameter) (rowIterator, error) {
	m.calls = append(m.calls, "read")
	m.ranQuery = query
	if m.readFunc != nil {
		return m.readFunc(ctx, query, params)
	}
	return &sliceIterator{}, nil
}

func (m *mockAPI) deleteTable(ctx context.Context, table string) error {
	m.calls = append(m.calls, "delete")
	m.deleted = append(m.deleted, table)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, table)
	}
	return nil
}

type sliceIterator struct {
	posts []RecentPost
	index int
}

func (it *sliceIterator) Next(dst any) error {
	if it.index >= len(it.posts) {
		return iteratorDone
	}
	*(dst.(*RecentPost)) = it.posts[it.index]
	it.index++
	return nil
}

func testAdapter(api *mockAPI) *Adapter {
	return &Adapter{
		api:     api,
		project: "proj",
		dataset: "ds",
		tables: Tables{
			ProfileDaily:  "sb_ig_profile_daily_metrics",
			PostSnapshots: "sb_ig_post_daily_snapshots",
			Demographics:  "sb_ig_follower_demographics",
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func sampleRows() []*insights.ProfileDailyMetric {
	followers := int64(100)
	return []*insights.ProfileDailyMetric{
		{
			Date:      civil.Date{Year: 2025, Month: 3, Day: 1},
			SpaceID:   "space-1",
			ProfileID: "p1",
			Platform:  insights.PlatformInstagram,
			Followers: &followers,
			CreatedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

// --- Tests ---

func TestUpsertEmptyBatchIsNoop(t *testing.T) {
	api := &mockAPI{}
	a := testAdapter(api)

	if err := a.UpsertProfileDaily(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.calls) != 0 {
		t.Errorf("expected zero warehouse calls, got %v", api.calls)
	}
}

func TestUpsertLoadsMergesAndCleansUp(t *testing.T) {
	api := &mockAPI{}
	a := testAdapter(api)

	if err := a.UpsertProfileDaily(context.Background(), sampleRows()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"load", "run", "delete"}
	if strings.Join(api.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", api.calls, want)
	}
	if !strings.HasPrefix(api.loadedTable, "tmp_") {
		t.Errorf("scratch table %q missing tmp_ prefix", api.loadedTable)
	}
	if api.deleted[0] != api.loadedTable {
		t.Errorf("deleted %q, loaded %q", api.deleted[0], api.loadedTable)
	}

	data := string(api.loadedData)
	if !strings.Contains(data, `"date":"2025-03-01"`) {
		t.Errorf("NDJSON date not serialized as civil date: %s", data)
	}
	if !strings.Contains(data, `"followers":100`) {
		t.Errorf("NDJSON missing followers: %s", data)
	}
	if !strings.Contains(data, `"impressions":null`) {
		t.Errorf("absent measure should serialize as null: %s", data)
	}

	q := api.ranQuery
	if !strings.Contains(q, "MERGE `proj.ds.sb_ig_profile_daily_metrics` AS T") {
		t.Errorf("merge target wrong: %s", q)
	}
	if !strings.Contains(q, "USING `proj.ds."+api.loadedTable+"` AS S") {
		t.Errorf("merge source wrong: %s", q)
	}
	if !strings.Contains(q, "ON T.date = S.date AND T.profile_id = S.profile_id") {
		t.Errorf("merge key clause wrong: %s", q)
	}
	if strings.Contains(q, "created_at=S.created_at") {
		t.Errorf("update clause must preserve created_at: %s", q)
	}
	if !strings.Contains(q, "updated_at=S.updated_at") {
		t.Errorf("update clause should refresh updated_at: %s", q)
	}
	if !strings.Contains(q, "INSERT (date, space_id, profile_id") {
		t.Errorf("insert clause wrong: %s", q)
	}
}

func TestUpsertMergeFailureStillDeletesScratch(t *testing.T) {
	api := &mockAPI{
		runFunc: func(ctx context.Context, query string, params []bigquery.QueryParameter) error {
			return errors.New("merge exploded")
		},
	}
	a := testAdapter(api)

	err := a.UpsertProfileDaily(context.Background(), sampleRows())
	if err == nil || !strings.Contains(err.Error(), "merge exploded") {
		t.Fatalf("expected merge error, got %v", err)
	}
	if len(api.deleted) != 1 {
		t.Errorf("scratch table not cleaned up after merge failure: %v", api.calls)
	}
}

func TestUpsertLoadFailureStillDeletesScratch(t *testing.T) {
	api := &mockAPI{
		loadFunc: func(ctx context.Context, table string, schema bigquery.Schema, data []byte) error {
			return errors.New("load exploded")
		},
	}
	a := testAdapter(api)

	err := a.UpsertProfileDaily(context.Background(), sampleRows())
	if err == nil {
		t.Fatal("expected load error")
	}
	if len(api.deleted) != 1 {
		t.Errorf("scratch table not cleaned up after load failure: %v", api.calls)
	}
	// The merge must never run after a failed load.
	for _, call := range api.calls {
		if call == "run" {
			t.Error("merge ran after failed load")
		}
	}
}

func TestUpsertDemographicsUsesFullSegmentKey(t *testing.T) {
	api := &mockAPI{}
	a := testAdapter(api)

	rows := []*insights.FollowerDemographics{{
		SnapshotDate: civil.Date{Year: 2025, Month: 3, Day: 1},
		SpaceID:      "space-1",
		ProfileID:    "p1",
		AgeGroup:     "25-34",
		Gender:       "F",
		Country:      "JP",
		City:         "Tokyo",
	}}
	if err := a.UpsertDemographics(context.Background(), rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, col := range []string{"snapshot_date", "profile_id", "age_group", "gender", "country", "city"} {
		if !strings.Contains(api.ranQuery, "T."+col+" = S."+col) {
			t.Errorf("key column %s missing from ON clause: %s", col, api.ranQuery)
		}
	}
}

func TestUpdateColumns(t *testing.T) {
	all := []string{"date", "profile_id", "followers", "created_at", "updated_at"}
	keys := []string{"date", "profile_id"}

	got := updateColumns(all, keys)
	want := []string{"followers", "updated_at"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("updateColumns = %v, want %v", got, want)
	}
}

func TestScratchTableName(t *testing.T) {
	a := scratchTableName()
	b := scratchTableName()
	if a == b {
		t.Error("scratch table names must be unique")
	}
	if !strings.HasPrefix(a, "tmp_") || strings.Contains(a, "-") {
		t.Errorf("unexpected scratch name %q", a)
	}
}

func TestRecentPosts(t *testing.T) {
	api := &mockAPI{
		readFunc: func(ctx context.Context, query string, params []bigquery.QueryParameter) (rowIterator, error) {
			if len(params) != 1 || params[0].Name != "lookback" || params[0].Value != int64(10) {
				t.Errorf("params = %v", params)
			}
			return &sliceIterator{posts: []RecentPost{
				{PostID: "post-1", ProfileID: "p1"},
				{PostID: "post-2", ProfileID: "p1"},
			}}, nil
		},
	}
	a := testAdapter(api)

	posts, err := a.RecentPosts(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 || posts[0].PostID != "post-1" {
		t.Errorf("posts = %v", posts)
	}
	if !strings.Contains(api.ranQuery, "FROM `proj.ds.sb_ig_post_daily_snapshots`") {
		t.Errorf("query = %s", api.ranQuery)
	}
}
