package ports

import (
	"context"

	"github.com/google/uuid"
)

// Notifier defines the best-effort external signal port invoked on task
// lifecycle events. Implementations are never authoritative: task state does
// not depend on notification success, and callers must treat every error as
// advisory.
//
// Each method may represent multiple downstream calls (webhook, email,
// analytics) that fail independently; the method fails as a whole if any
// downstream step fails. Errors are classified with domain sentinels:
// domain.ErrUnavailable for timeouts and transient faults,
// domain.ErrThrottled for rate limiting (do not retry immediately), and a
// plain descriptive error otherwise.
//
// Implementations should bound their own latency so a detached dispatch
// cannot hold a goroutine indefinitely.
type Notifier interface {
	// NotifyCreated signals that a task was created.
	NotifyCreated(ctx context.Context, id uuid.UUID, title string) error

	// NotifyCompleted signals that a task transitioned to completed.
	NotifyCompleted(ctx context.Context, id uuid.UUID, title string) error

	// NotifySummary signals that a batch of count tasks was created.
	NotifySummary(ctx context.Context, count int) error
}
