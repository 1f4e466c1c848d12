// Package health provides a thread-safe registry of dependency health
// checks. The readiness endpoint consults the registry to decide whether
// the service should receive traffic.
package health

import (
	"context"
	"sync"

	"github.com/stackbound/task-service/internal/ports"
)

// Compile-time interface check.
var _ ports.HealthRegistry = (*Registry)(nil)

// Registry collects [ports.HealthChecker] implementations registered at
// startup and runs them on demand. All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	checkers []ports.HealthChecker
}

// New creates an empty health check registry.
func New() *Registry {
	return &Registry{}
}

// Register adds a health checker to the registry.
func (r *Registry) Register(checker ports.HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, checker)
}

// CheckAll runs every registered check and returns the results keyed by
// checker name. A nil value means the component is healthy. The checker
// slice is copied under a read lock so the checks themselves run unlocked.
func (r *Registry) CheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	checkers := make([]ports.HealthChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	results := make(map[string]error, len(checkers))
	for _, c := range checkers {
		results[c.Name()] = c.HealthCheck(ctx)
	}
	return results
}
