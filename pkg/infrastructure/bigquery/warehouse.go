// Package bigquery provides warehouse upserts using Google BigQuery. Each
// batch is bulk-loaded into a uniquely named scratch table and merged into
// its target table on the natural key; the scratch table is removed on
// every exit path.
package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/growthops/statusbrew-pipeline/pkg/insights"
)

// iteratorDone aliases the sentinel so test iterators can share it.
var iteratorDone = iterator.Done

// Tables holds the three target table names inside the dataset.
type Tables struct {
	ProfileDaily  string
	PostSnapshots string
	Demographics  string
}

// rowIterator is the subset of bigquery.RowIterator the adapter reads through.
type rowIterator interface {
	Next(dst any) error
}

// api is the seam between the adapter and the BigQuery client.
type api interface {
	load(ctx context.Context, table string, schema bigquery.Schema, data []byte) error
	run(ctx context.Context, query string, params []bigquery.QueryParameter) error
	read(ctx context.Context, query string, params []bigquery.QueryParameter) (rowIterator, error)
	deleteTable(ctx context.Context, table string) error
}

// Adapter applies canonical row batches to the warehouse.
type Adapter struct {
	api     api
	project string
	dataset string
	tables  Tables
	logger  *slog.Logger
}

func NewAdapter(client *bigquery.Client, project, dataset string, tables Tables, logger *slog.Logger) *Adapter {
	return &Adapter{
		api:     &clientAPI{client: client, dataset: dataset},
		project: project,
		dataset: dataset,
		tables:  tables,
		logger:  logger,
	}
}

// UpsertProfileDaily merges profile daily metric rows on (date, profile_id).
func (a *Adapter) UpsertProfileDaily(ctx context.Context, rows []*insights.ProfileDailyMetric) error {
	return upsert(ctx, a, a.tables.ProfileDaily, rows, insights.ProfileDailySchema, insights.ProfileDailyKey)
}

// UpsertPostSnapshots merges post snapshot rows on (snapshot_date, post_id).
func (a *Adapter) UpsertPostSnapshots(ctx context.Context, rows []*insights.PostDailySnapshot) error {
	return upsert(ctx, a, a.tables.PostSnapshots, rows, insights.PostSnapshotSchema, insights.PostSnapshotKey)
}

// UpsertDemographics merges demographics rows on the full segment key.
func (a *Adapter) UpsertDemographics(ctx context.Context, rows []*insights.FollowerDemographics) error {
	return upsert(ctx, a, a.tables.Demographics, rows, insights.FollowerDemographicsSchema, insights.FollowerDemographicsKey)
}

// upsert loads a batch into a scratch table and merges it into target.
// An empty batch performs no warehouse calls at all.
func upsert[T any](ctx context.Context, a *Adapter, target string, rows []T, schema bigquery.Schema, keyColumns []string) error {
	if len(rows) == 0 {
		a.logger.Info("No rows to upsert", "table", target)
		return nil
	}

	data, err := encodeRows(rows)
	if err != nil {
		return fmt.Errorf("encode rows for %s: %w", target, err)
	}

	scratch := scratchTableName()
	// The scratch table must not survive any exit path, including a load or
	// merge failure on an already-cancelled context.
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if err := a.api.deleteTable(cleanupCtx, scratch); err != nil {
			a.logger.Warn("Failed to delete scratch table", "table", scratch, "error", err)
		}
	}()

	if err := a.api.load(ctx, scratch, schema, data); err != nil {
		return fmt.Errorf("load scratch table for %s: %w", target, err)
	}
	a.logger.Debug("Loaded rows into scratch table", "rows", len(rows), "table", scratch)

	query := buildMergeSQL(a.project, a.dataset, target, scratch, keyColumns, columnNames(schema))
	if err := a.api.run(ctx, query, nil); err != nil {
		return fmt.Errorf("merge into %s: %w", target, err)
	}

	a.logger.Info("Upserted rows", "rows", len(rows), "table", target)
	return nil
}

// RecentPost is one post observed in the snapshots table within the
// lookback window.
type RecentPost struct {
	PostID          string                 `bigquery:"post_id"`
	ProfileID       string                 `bigquery:"profile_id"`
	PostPublishedAt bigquery.NullTimestamp `bigquery:"post_published_at"`
}

// RecentPosts returns the posts captured in the snapshots table over the
// last lookbackDays days.
func (a *Adapter) RecentPosts(ctx context.Context, lookbackDays int) ([]RecentPost, error) {
	query := fmt.Sprintf(`SELECT post_id, profile_id, MAX(post_published_at) AS post_published_at
FROM `+"`%s.%s.%s`"+`
WHERE snapshot_date >= DATE_SUB(CURRENT_DATE(), INTERVAL @lookback DAY)
GROUP BY post_id, profile_id`, a.project, a.dataset, a.tables.PostSnapshots)

	it, err := a.api.read(ctx, query, []bigquery.QueryParameter{
		{Name: "lookback", Value: int64(lookbackDays)},
	})
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}

	var posts []RecentPost
	for {
		var post RecentPost
		err := it.Next(&post)
		if errors.Is(err, iteratorDone) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read recent posts: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// scratchTableName allocates a collision-resistant staging table name so
// concurrent job invocations never share staging data.
func scratchTableName() string {
	return "tmp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// encodeRows serializes a batch as newline-delimited JSON for a load job.
func encodeRows[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func columnNames(schema bigquery.Schema) []string {
	names := make([]string, len(schema))
	for i, field := range schema {
		names[i] = field.Name
	}
	return names
}

// updateColumns returns the columns a matched row updates: every non-key
// column except created_at, which is preserved from first insertion.
func updateColumns(allColumns, keyColumns []string) []string {
	skip := map[string]bool{"created_at": true}
	for _, key := range keyColumns {
		skip[key] = true
	}
	out := make([]string, 0, len(allColumns))
	for _, col := range allColumns {
		if !skip[col] {
			out = append(out, col)
		}
	}
	return out
}

// buildMergeSQL renders the set-based upsert: matched natural keys update
// in place, unmatched keys insert in full.
func buildMergeSQL(project, dataset, target, scratch string, keyColumns, allColumns []string) string {
	on := make([]string, len(keyColumns))
	for i, col := range keyColumns {
		on[i] = fmt.Sprintf("T.%s = S.%s", col, col)
	}

	updates := updateColumns(allColumns, keyColumns)
	sets := make([]string, len(updates))
	for i, col := range updates {
		sets[i] = fmt.Sprintf("%s=S.%s", col, col)
	}

	values := make([]string, len(allColumns))
	for i, col := range allColumns {
		values[i] = "S." + col
	}

	return fmt.Sprintf(`MERGE `+"`%s.%s.%s`"+` AS T
USING `+"`%s.%s.%s`"+` AS S
ON %s
WHEN MATCHED THEN
  UPDATE SET %s
WHEN NOT MATCHED THEN
  INSERT (%s)
  VALUES (%s)`,
		project, dataset, target,
		project, dataset, scratch,
		strings.Join(on, " AND "),
		strings.Join(sets, ", "),
		strings.Join(allColumns, ", "),
		strings.Join(values, ", "),
	)
}

// --- BigQuery-backed implementation ---

type clientAPI struct {
	client  *bigquery.Client
	dataset string
}

func (c *clientAPI) load(ctx context.Context, table string, schema bigquery.Schema, data []byte) error {
	source := bigquery.NewReaderSource(bytes.NewReader(data))
	source.SourceFormat = bigquery.JSON
	source.Schema = schema

	loader := c.client.Dataset(c.dataset).Table(table).LoaderFrom(source)
	loader.WriteDisposition = bigquery.WriteTruncate

	job, err := loader.Run(ctx)
	if err != nil {
		return err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	return status.Err()
}

func (c *clientAPI) run(ctx context.Context, query string, params []bigquery.QueryParameter) error {
	q := c.client.Query(query)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return err
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return err
	}
	return status.Err()
}

func (c *clientAPI) read(ctx context.Context, query string, params []bigquery.QueryParameter) (rowIterator, error) {
	q := c.client.Query(query)
	q.Parameters = params
	return q.Read(ctx)
}

func (c *clientAPI) deleteTable(ctx context.Context, table string) error {
	err := c.client.Dataset(c.dataset).Table(table).Delete(ctx)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 404 {
		// Nothing to clean up: the load never created the table.
		return nil
	}
	return err
}
