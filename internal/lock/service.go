// Package lock implements the LockService abstraction: a leased mutual
// exclusion primitive keyed by canonical URL, so that only one loop in the
// fleet is ever working a given resource at a time.
package lock

import (
	"context"
	"time"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

// Service grants and releases leases on a URL. Acquire must be called
// before a loop starts fetching/processing a request, and Release (or a
// natural lease expiry) must follow before any other loop may acquire the
// same URL.
type Service interface {
	// Acquire makes a single attempt to grant the lease. A URL already
	// held by a live lease comes back as an error wrapping
	// types.ErrLockExceeded rather than blocking; the pipeline's
	// requeue/backoff path is what retries it.
	Acquire(ctx context.Context, url string, ttl time.Duration) (*types.Lease, error)

	// Release gives up a held lease early. Releasing a lease that has
	// already expired is not an error.
	Release(ctx context.Context, lease *types.Lease) error

	// Extend pushes out a held lease's expiry, used by long-running
	// fetches to avoid losing the lock mid-flight.
	Extend(ctx context.Context, lease *types.Lease, ttl time.Duration) error

	// Close releases broker resources.
	Close() error
}
