// Package notify posts failure alerts to a chat webhook. Delivery is best
// effort: a dead webhook must never make a backup run worse than it
// already is.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bnema/lifeboat/internal/boundaries/out"
)

const requestTimeout = 5 * time.Second

// WebhookSink posts a JSON {"text": ...} payload, the shape Slack and
// Mattermost compatible endpoints accept.
type WebhookSink struct {
	url    string
	client *http.Client
	log    *log.Logger
}

// NewWebhookSink creates a sink for the given webhook URL.
func NewWebhookSink(url string, logger *log.Logger) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: requestTimeout},
		log:    logger,
	}
}

var _ out.AlertSink = (*WebhookSink)(nil)

// NopSink satisfies out.AlertSink when no webhook is configured.
type NopSink struct{}

var _ out.AlertSink = NopSink{}

// Notify does nothing.
func (NopSink) Notify(context.Context, string) {}

// Notify posts the summary, prefixed with host and timestamp so alerts from
// multiple deployments stay distinguishable. Errors are logged and dropped.
func (w *WebhookSink) Notify(ctx context.Context, summary string) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	text := fmt.Sprintf("[lifeboat %s %s] %s",
		hostname, time.Now().Format(time.RFC3339), summary)

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		w.log.Warn("failed to encode alert payload", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.log.Warn("failed to build alert request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.Warn("alert delivery failed", "url", w.url, "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.log.Warn("alert endpoint rejected payload", "url", w.url, "status", resp.StatusCode)
	}
}
