// Package statusbrew is an API client for the Statusbrew insights API.
package statusbrew

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	httputil "github.com/growthops/statusbrew-pipeline/pkg/infrastructure/http"
	"github.com/growthops/statusbrew-pipeline/pkg/insights"
)

const (
	defaultTimeout        = 60 * time.Second
	defaultMaxAttempts    = 3
	defaultBackoffInitial = 1 * time.Second
	defaultBackoffMax     = 10 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	MaxAttempts int
	// Backoff bounds between retry attempts.
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	Logger         *slog.Logger
}

// Client is an authenticated Statusbrew API client. It owns one persistent
// HTTP connection pool for the process lifetime; Close releases it and is
// idempotent.
type Client struct {
	baseURL        string
	client         *http.Client
	maxAttempts    int
	backoffInitial time.Duration
	backoffMax     time.Duration
	logger         *slog.Logger
}

// NewClient creates a new Statusbrew API client.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.BackoffInitial == 0 {
		opts.BackoffInitial = defaultBackoffInitial
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = defaultBackoffMax
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		baseURL: opts.BaseURL,
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &bearerTransport{
				token: opts.AccessToken,
			},
		},
		maxAttempts:    opts.MaxAttempts,
		backoffInitial: opts.BackoffInitial,
		backoffMax:     opts.BackoffMax,
		logger:         opts.Logger,
	}
}

// bearerTransport injects the bearer token into every request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	req2 := req.Clone(req.Context())
	req2.Header.Set("Authorization", "Bearer "+t.token)
	return base.RoundTrip(req2)
}

// TimeRange is the inclusive reporting window of an insights request.
type TimeRange struct {
	Since string `json:"since"`
	Until string `json:"until"`
}

// InsightsRequest is the body of POST /v1/spaces/{space}/insights.
type InsightsRequest struct {
	Metrics     []string       `json:"metrics"`
	Dimensions  []string       `json:"dimensions"`
	TimeRange   TimeRange      `json:"time_range"`
	Filters     map[string]any `json:"filters,omitempty"`
	Granularity string         `json:"granularity,omitempty"`
}

// request performs one API call under the retry policy: transient failures
// (network errors, 5xx, timeouts, throttling) are retried with exponential
// backoff up to maxAttempts; everything else propagates immediately. After
// the final attempt the original failure is returned to the caller.
func (c *Client) request(ctx context.Context, method, path string, body any) ([]insights.Record, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	var records []insights.Record
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Network-level failures are transient.
			c.logger.Warn("Statusbrew request failed", "method", method, "path", path, "error", err)
			return err
		}
		defer resp.Body.Close()

		if err := httputil.ParseErrorResponse(resp); err != nil {
			if httputil.IsRetryable(err) {
				c.logger.Warn("Statusbrew API error", "method", method, "path", path, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		recs, err := decodeEnvelope(data)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		records = recs
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.backoffInitial
	bo.MaxInterval = c.backoffMax
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.maxAttempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("statusbrew: %s %s: %w", method, path, err)
	}
	return records, nil
}

// decodeEnvelope unwraps the polymorphic response envelope. The API wraps
// results under data, rows or profiles depending on the endpoint; a bare
// array is accepted as-is and any other object is surfaced as a single
// record. This tolerance is deliberate.
func decodeEnvelope(data []byte) ([]insights.Record, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	switch v := raw.(type) {
	case []any:
		return toRecords(v), nil
	case map[string]any:
		for _, key := range []string{"data", "rows", "profiles"} {
			if arr, ok := v[key].([]any); ok {
				return toRecords(arr), nil
			}
		}
		return []insights.Record{insights.Record(v)}, nil
	default:
		return nil, fmt.Errorf("unexpected response shape %T", raw)
	}
}

func toRecords(items []any) []insights.Record {
	records := make([]insights.Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			records = append(records, insights.Record(m))
		}
	}
	return records
}

// Close releases the client's idle connections. Safe to call more than once.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
