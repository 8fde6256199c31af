// Package store implements the Store abstraction: an idempotent,
// upsert-only document sink keyed by (type, url), with an etag lookup used
// by the fetcher to issue conditional GETs.
package store

import (
	"context"
)

// Store persists processed documents and answers the conditional-fetch
// question "what etag did we last see for this URL".
type Store interface {
	// Upsert writes document, replacing any existing document for the
	// same (resourceType, url). document must be a single object, never
	// an array -- a collection response arrives as one document with its
	// elements wrapped under "elements".
	Upsert(ctx context.Context, resourceType, url string, document map[string]any) error

	// Get retrieves the stored document for (resourceType, url), and
	// reports whether one exists.
	Get(ctx context.Context, resourceType, url string) (map[string]any, bool, error)

	// ETag returns the last-known validator for url, and whether one is
	// on record. Used to populate If-None-Match on the next fetch.
	ETag(ctx context.Context, resourceType, url string) (string, bool, error)

	// Version returns the processor version stored against url, or -1 if
	// no document is on record yet.
	Version(ctx context.Context, resourceType, url string) (int, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
