package httpclient_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/stackbound/task-service/internal/platform/config"
	"github.com/stackbound/task-service/internal/platform/httpclient"
)

const peerName = "notify-api"

func notifyClientConfig(baseURL string) *config.ClientConfig {
	return &config.ClientConfig{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	}
}

func newNotifyClient(baseURL string, mutate func(*config.ClientConfig)) *httpclient.Client {
	cfg := notifyClientConfig(baseURL)
	if mutate != nil {
		mutate(cfg)
	}
	return httpclient.New(cfg, peerName, nil, slog.New(slog.DiscardHandler))
}

// post fires one request at the notify endpoint and closes any response
// body. It returns the response body as a string alongside the error.
func post(t *testing.T, c *httpclient.Client, ctx context.Context, url, body string) (int, string, error) {
	t.Helper()

	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, rd)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}

	resp, err := c.Do(ctx, req)
	if resp == nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	got, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(got), err
}

func TestDo_DeliversNotification(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}))
	t.Cleanup(srv.Close)

	client := newNotifyClient(srv.URL, nil)

	status, body, err := post(t, client, context.Background(), srv.URL+"/v1/notifications/task-created", "")
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want %d", status, http.StatusOK)
	}
	if body != `{"accepted":true}` {
		t.Errorf("body = %q, want %q", body, `{"accepted":true}`)
	}
}

func TestDo_RetriesTransientStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		failStatus int
		failCount  int
		wantHits   int32
	}{
		{name: "500 retried until success", failStatus: http.StatusInternalServerError, failCount: 2, wantHits: 3},
		{name: "429 retried until success", failStatus: http.StatusTooManyRequests, failCount: 1, wantHits: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if int(hits.Add(1)) <= tt.failCount {
					w.WriteHeader(tt.failStatus)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			t.Cleanup(srv.Close)

			client := newNotifyClient(srv.URL, nil)

			status, _, err := post(t, client, context.Background(), srv.URL+"/v1/notifications/task-created", "")
			if err != nil {
				t.Fatalf("Do() error = %v", err)
			}
			if status != http.StatusOK {
				t.Errorf("status = %d, want %d", status, http.StatusOK)
			}
			if got := hits.Load(); got != tt.wantHits {
				t.Errorf("downstream hits = %d, want %d", got, tt.wantHits)
			}
		})
	}
}

func TestDo_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	client := newNotifyClient(srv.URL, nil)

	status, _, err := post(t, client, context.Background(), srv.URL+"/v1/notifications/task-created", "")
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("downstream hits = %d, want 1 (4xx is final)", got)
	}
}

func TestDo_ExhaustedRetriesReturnLastResponse(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
	}))
	t.Cleanup(srv.Close)

	client := newNotifyClient(srv.URL, nil)

	status, body, err := post(t, client, context.Background(), srv.URL+"/v1/notifications/batch-summary", "")
	if err == nil {
		t.Fatal("Do() error = nil, want non-nil after exhausting retries")
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("downstream hits = %d, want 3", got)
	}
	// The last response comes back body intact for the caller to inspect.
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", status, http.StatusServiceUnavailable)
	}
	if body != "unavailable" {
		t.Errorf("body = %q, want %q", body, "unavailable")
	}
}

func TestDo_ReplaysBodyOnRetry(t *testing.T) {
	t.Parallel()

	payload := `{"event":"created","title":"Buy groceries"}`

	var (
		hits   atomic.Int32
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := newNotifyClient(srv.URL, nil)

	if _, _, err := post(t, client, context.Background(), srv.URL+"/v1/notifications/task-created", payload); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if len(bodies) != 2 {
		t.Fatalf("downstream hits = %d, want 2", len(bodies))
	}
	for i, b := range bodies {
		if b != payload {
			t.Errorf("attempt %d body = %q, want %q", i+1, b, payload)
		}
	}
}

func TestDo_StampsIdentityHeaders(t *testing.T) {
	t.Parallel()

	var gotReqID, gotCorrID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReqID = r.Header.Get("X-Request-ID")
		gotCorrID = r.Header.Get("X-Correlation-ID")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := newNotifyClient(srv.URL, nil)

	ctx := httpclient.WithRequestID(context.Background(), "req-123")
	ctx = httpclient.WithCorrelationID(ctx, "corr-456")

	if _, _, err := post(t, client, ctx, srv.URL+"/v1/notifications/task-created", ""); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if gotReqID != "req-123" {
		t.Errorf("X-Request-ID = %q, want %q", gotReqID, "req-123")
	}
	if gotCorrID != "corr-456" {
		t.Errorf("X-Correlation-ID = %q, want %q", gotCorrID, "corr-456")
	}
}

func TestDo_BreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := newNotifyClient(srv.URL, func(cfg *config.ClientConfig) {
		cfg.CircuitBreaker.MaxFailures = 1
		cfg.Retry.MaxAttempts = 1
	})

	ctx := context.Background()

	// First failure trips the breaker.
	_, _, _ = post(t, client, ctx, srv.URL+"/v1/notifications/task-created", "")

	before := hits.Load()
	_, _, err := post(t, client, ctx, srv.URL+"/v1/notifications/task-created", "")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want gobreaker.ErrOpenState", err)
	}
	if hits.Load() != before {
		t.Error("downstream was hit while the breaker was open")
	}
}

func TestDo_BreakerRecoversAfterTimeout(t *testing.T) {
	t.Parallel()

	var failing atomic.Bool
	failing.Store(true)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := newNotifyClient(srv.URL, func(cfg *config.ClientConfig) {
		cfg.CircuitBreaker.MaxFailures = 1
		cfg.CircuitBreaker.Timeout = 100 * time.Millisecond
		cfg.Retry.MaxAttempts = 1
	})

	ctx := context.Background()
	url := srv.URL + "/v1/notifications/task-completed"

	// Trip the breaker, then confirm it is rejecting.
	_, _, _ = post(t, client, ctx, url, "")
	if _, _, err := post(t, client, ctx, url, ""); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got: %v", err)
	}

	// After the breaker timeout and a healthy downstream, the half-open
	// probe should close it again.
	time.Sleep(150 * time.Millisecond)
	failing.Store(false)

	status, _, err := post(t, client, ctx, url, "")
	if err != nil {
		t.Fatalf("Do() error = %v, want recovery", err)
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want %d after recovery", status, http.StatusOK)
	}
}

func TestDo_CanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := newNotifyClient(srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := post(t, client, ctx, srv.URL+"/v1/notifications/task-created", ""); err == nil {
		t.Fatal("Do() error = nil, want context error")
	}
}

func TestClient_Name(t *testing.T) {
	t.Parallel()

	client := newNotifyClient("http://localhost", nil)

	if got := client.Name(); got != peerName {
		t.Errorf("Name() = %q, want %q", got, peerName)
	}
}

func TestClient_HealthCheck(t *testing.T) {
	t.Parallel()

	t.Run("closed breaker is healthy", func(t *testing.T) {
		t.Parallel()

		client := newNotifyClient("http://localhost", nil)
		if err := client.HealthCheck(context.Background()); err != nil {
			t.Errorf("HealthCheck() = %v, want nil", err)
		}
	})

	t.Run("open breaker reports failing", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		client := newNotifyClient(srv.URL, func(cfg *config.ClientConfig) {
			cfg.CircuitBreaker.MaxFailures = 1
			cfg.Retry.MaxAttempts = 1
		})

		_, _, _ = post(t, client, context.Background(), srv.URL+"/v1/notifications/task-created", "")

		err := client.HealthCheck(context.Background())
		if err == nil {
			t.Fatal("HealthCheck() = nil, want error for open breaker")
		}
		if !strings.Contains(err.Error(), "failing") {
			t.Errorf("HealthCheck() = %q, want error containing %q", err, "failing")
		}
	})
}
