// Package slack delivers best-effort run outcome notifications to a Slack
// incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	httputil "github.com/growthops/statusbrew-pipeline/pkg/infrastructure/http"
)

// Notifier posts messages to a Slack incoming webhook. A Notifier with no
// webhook configured silently drops every message.
type Notifier struct {
	webhookURL string
	channel    string
	client     *http.Client
	logger     *slog.Logger
}

func NewNotifier(webhookURL, channel string, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		channel:    channel,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Notify sends a message. Delivery is best-effort: failures are logged and
// never propagate to the caller.
func (n *Notifier) Notify(ctx context.Context, text string) {
	if n.webhookURL == "" {
		n.logger.Debug("Slack webhook not configured; skipping notification")
		return
	}

	payload := map[string]string{"text": text}
	if n.channel != "" {
		payload["channel"] = n.channel
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("Failed to encode Slack payload", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("Failed to build Slack request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("Failed to send Slack notification", "error", err)
		return
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		n.logger.Warn("Slack webhook rejected notification", "error", err)
	}
}
