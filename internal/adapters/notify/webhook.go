package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/stackbound/task-service/internal/app/fanout"
	"github.com/stackbound/task-service/internal/domain"
	"github.com/stackbound/task-service/internal/platform/httpclient"
	"github.com/stackbound/task-service/internal/ports"
)

// Compile-time interface check.
var _ ports.Notifier = (*WebhookNotifier)(nil)

// Downstream paths on the notification API.
const (
	pathWebhooks     = "/v1/webhooks/tasks"
	pathEmails       = "/v1/emails"
	pathAnalytics    = "/v1/analytics/completions"
	pathAggregations = "/v1/aggregations/batches"
)

// WebhookNotifier delivers task lifecycle events to the external
// notification API over HTTP. A created event fans out to the webhook and
// email endpoints concurrently; completion and summary events each hit a
// single endpoint. The underlying client supplies retries, rate limiting,
// and circuit breaking; this type only shapes payloads and classifies
// outcomes into domain sentinels.
type WebhookNotifier struct {
	client *httpclient.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a WebhookNotifier on top of an instrumented
// HTTP client configured for the notification API.
func NewWebhookNotifier(client *httpclient.Client, logger *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{client: client, logger: logger}
}

// delivery is one downstream call within a notification.
type delivery struct {
	path    string
	payload any
}

type createdPayload struct {
	Event     string    `json:"event"`
	TaskID    uuid.UUID `json:"task_id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

type completedPayload struct {
	Event     string    `json:"event"`
	TaskID    uuid.UUID `json:"task_id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

type summaryPayload struct {
	Event     string    `json:"event"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NotifyCreated delivers the created event to the webhook and email
// endpoints concurrently. It fails as a whole if either delivery fails.
func (n *WebhookNotifier) NotifyCreated(ctx context.Context, id uuid.UUID, title string) error {
	payload := createdPayload{
		Event:     "task.created",
		TaskID:    id,
		Title:     title,
		Timestamp: time.Now().UTC(),
	}

	deliveries := []delivery{
		{path: pathWebhooks, payload: payload},
		{path: pathEmails, payload: payload},
	}

	results := fanout.Run(ctx, len(deliveries), deliveries, func(ctx context.Context, d delivery) (struct{}, error) {
		return struct{}{}, n.post(ctx, d.path, d.payload)
	})

	errs := make([]error, 0, len(results))
	for i, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", deliveries[i].path, r.Err))
		}
	}
	return errors.Join(errs...)
}

// NotifyCompleted delivers the completion event to the analytics endpoint.
func (n *WebhookNotifier) NotifyCompleted(ctx context.Context, id uuid.UUID, title string) error {
	return n.post(ctx, pathAnalytics, completedPayload{
		Event:     "task.completed",
		TaskID:    id,
		Title:     title,
		Timestamp: time.Now().UTC(),
	})
}

// NotifySummary delivers the batch summary to the aggregation endpoint.
func (n *WebhookNotifier) NotifySummary(ctx context.Context, count int) error {
	return n.post(ctx, pathAggregations, summaryPayload{
		Event:     "task.batch_created",
		Count:     count,
		Timestamp: time.Now().UTC(),
	})
}

// post sends one JSON payload and classifies the outcome.
func (n *WebhookNotifier) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.client.BaseURL()+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, doErr := n.client.Do(ctx, req)
	if resp != nil {
		// Response content is irrelevant; drain for connection reuse.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return classifyStatus(resp.StatusCode)
	}
	if doErr != nil {
		// No response at all: circuit open, timeout, or network fault.
		return fmt.Errorf("notify-api: %w: %w", domain.ErrUnavailable, doErr)
	}
	return nil
}

// classifyStatus maps an HTTP status to the notifier error taxonomy.
// The client has already exhausted retries by the time we see 429 or 5xx.
func classifyStatus(status int) error {
	switch {
	case status < http.StatusMultipleChoices:
		return nil
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("notify-api: HTTP 429: %w", domain.ErrThrottled)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("notify-api: HTTP %d: %w", status, domain.ErrUnavailable)
	default:
		return fmt.Errorf("notify-api: unexpected HTTP %d", status)
	}
}
