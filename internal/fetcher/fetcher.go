// Package fetcher implements the Fetcher component: conditional HTTP GETs
// against the remote hypermedia API, honoring ETags and robots.txt. A 429
// or 5xx response is returned as a retryable FetchError (a 429 carries its
// Retry-After); the fetcher itself does not wait or retry.
package fetcher

import (
	"context"

	"github.com/ghcrawl/ghcrawl/internal/types"
)

// Fetcher retrieves the representation at a request's URL, issuing a
// conditional GET when a prior ETag is known.
type Fetcher interface {
	// Fetch performs the request. etag, if non-empty, is sent as
	// If-None-Match; a 304 response comes back as FetchMeta.Unmodified
	// with no Body.
	Fetch(ctx context.Context, req *types.Request, etag string) (*types.FetchMeta, error)

	// Allowed reports whether robots.txt permits fetching url. Always
	// true when robots enforcement is disabled.
	Allowed(ctx context.Context, url string) bool

	// Close releases resources held by the fetcher.
	Close() error
}
