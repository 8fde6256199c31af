package types

import (
	"net/http"
	"time"
)

// FetchMeta captures the transport-level facts the fetcher observed about
// a single attempt, enough for the pipeline to decide whether to process,
// store, or short-circuit the request. It is never persisted as-is.
type FetchMeta struct {
	StatusCode int
	Headers    http.Header

	// ETag is the validator returned by the remote resource, carried
	// forward so the next conditional GET against the same URL can send
	// If-None-Match.
	ETag string

	// Unmodified is true on a 304 response: the caller already holds the
	// current representation and the fetch produced no new body.
	Unmodified bool

	// Body is the raw response payload for a 200. Empty on 304.
	Body []byte

	// ContentType is the MIME type of Body.
	ContentType string

	// FinalURL is the URL after following redirects.
	FinalURL string

	// RetryAfter is populated from a 429/503 Retry-After header.
	RetryAfter time.Duration

	FetchDuration time.Duration
	FetchedAt     time.Time
}

// NewFetchMeta builds a FetchMeta from a completed http.Response.
func NewFetchMeta(resp *http.Response, body []byte, duration time.Duration) *FetchMeta {
	finalURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &FetchMeta{
		StatusCode:    resp.StatusCode,
		Headers:       resp.Header,
		ETag:          resp.Header.Get("ETag"),
		Unmodified:    resp.StatusCode == http.StatusNotModified,
		Body:          body,
		ContentType:   resp.Header.Get("Content-Type"),
		FinalURL:      finalURL,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// IsSuccess reports whether the fetch returned a usable 2xx or a 304.
func (m *FetchMeta) IsSuccess() bool {
	return m.Unmodified || (m.StatusCode >= 200 && m.StatusCode < 300)
}

// IsClientError reports a 4xx other than 409, which callers handle
// specially (409 -> empty-repo skip, surfaced by the fetcher as a
// successful FetchMeta rather than an error).
func (m *FetchMeta) IsClientError() bool {
	return m.StatusCode >= 400 && m.StatusCode < 500 && m.StatusCode != http.StatusConflict
}

// IsServerError reports a 5xx, a status the fetcher returns as a
// retryable FetchError.
func (m *FetchMeta) IsServerError() bool {
	return m.StatusCode >= 500 && m.StatusCode < 600
}

// IsNotFound reports a 404. A 404 is an ordinary client error (the crawler
// marks the request as errored, same as any other non-409 4xx); this
// predicate exists for callers that need to distinguish it for logging.
func (m *FetchMeta) IsNotFound() bool {
	return m.StatusCode == http.StatusNotFound
}

// IsEmptyRepo reports a 409, GitHub's signal for a repository with no
// commits yet. The crawler treats this as a clean skip rather than an
// error.
func (m *FetchMeta) IsEmptyRepo() bool {
	return m.StatusCode == http.StatusConflict
}

// LinkHeader returns the raw RFC 5988 Link header, if present, for the
// collection handler's pagination discovery to parse.
func (m *FetchMeta) LinkHeader() string {
	return m.Headers.Get("Link")
}
