package httpclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/stackbound/task-service/internal/platform/logging"
)

// jitterFraction spreads the backoff delay by up to a quarter either way so
// parallel retries do not line up.
const jitterFraction = 0.25

// doWithRetry runs the request with exponential backoff, replaying a
// buffered copy of the body on each attempt. The response lands in resp
// instead of a return value to keep the bodyclose linter quiet; the caller
// owns closing it.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, resp **http.Response) error {
	if c.policy.attempts <= 0 {
		return fmt.Errorf("httpclient: retry attempts must be >= 1, got %d", c.policy.attempts)
	}

	body, err := captureBody(req)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := range c.policy.attempts {
		if attempt > 0 {
			if err := c.pause(ctx, req, attempt, lastErr); err != nil {
				return err
			}
		}

		rewindBody(req, body)

		r, err := c.httpClient.Do(req)
		if err != nil {
			if !retryableError(err) {
				return err
			}
			lastErr = err
			continue
		}

		if !retryableStatus(r.StatusCode) {
			*resp = r
			return nil
		}

		lastErr = fmt.Errorf("HTTP %d from %s", r.StatusCode, c.serviceName)

		if attempt == c.policy.attempts-1 {
			// Out of attempts; hand the response back body intact.
			*resp = r
			return lastErr
		}

		discardBody(r)
	}

	return lastErr
}

// captureBody buffers the request body for replay across attempts. A nil
// body buffers to nil.
func captureBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	_ = req.Body.Close()

	return body, nil
}

// rewindBody installs a fresh reader over the buffered body before an
// attempt.
func rewindBody(req *http.Request, body []byte) {
	if body == nil {
		return
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
}

// discardBody drains and closes a response body so the connection can be
// reused by the next attempt.
func discardBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// pause logs the upcoming retry and sleeps out the backoff, aborting early
// on context cancellation.
func (c *Client) pause(ctx context.Context, req *http.Request, attempt int, lastErr error) error {
	delay := backoff(attempt, c.policy)

	logging.FromContext(ctx).WarnContext(ctx, "retrying HTTP request",
		slog.String("operation", "httpclient.Do"),
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.String("peer_service", c.serviceName),
		slog.Int("attempt", attempt+1),
		slog.Int("max_attempts", c.policy.attempts),
		slog.Duration("backoff", delay),
		slog.Any("error", lastErr),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// backoff computes the jittered exponential delay for a retry. attempt is
// 1-indexed: attempt 1 is the first retry.
func backoff(attempt int, policy backoffPolicy) time.Duration {
	delay := float64(policy.initial) * math.Pow(policy.factor, float64(attempt-1))
	delay = math.Min(delay, float64(policy.cap))

	jitter := delay * jitterFraction
	delay += jitter * (2*secureRandFloat64() - 1)

	return time.Duration(math.Max(delay, 0))
}

// IEEE 754 double-precision constants for random float generation.
const (
	significandBits = 53
	uint64Bits      = 64
)

// secureRandFloat64 draws a float64 in [0, 1) from crypto/rand.
func secureRandFloat64() float64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0
	}
	return float64(binary.BigEndian.Uint64(b[:])>>(uint64Bits-significandBits)) / float64(uint64(1)<<significandBits)
}

// retryableError reports whether a transport error deserves another attempt.
// Context cancellation and deadline expiry do not; network errors, timeouts
// included, and anything unclassified do.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// retryableStatus covers 5xx and 429.
func retryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
}
