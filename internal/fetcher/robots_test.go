package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRobotsGateDisallowsBlockedPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewRobotsGate(srv.Client(), "ghcrawld-test", testLogger())

	if g.Allowed(context.Background(), srv.URL+"/private/secret", "ghcrawld-test") {
		t.Errorf("expected /private/ to be disallowed")
	}
	if !g.Allowed(context.Background(), srv.URL+"/public/page", "ghcrawld-test") {
		t.Errorf("expected /public/ to be allowed")
	}
}

func TestRobotsGateCachesPerOrigin(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits++
			w.Write([]byte("User-agent: *\nDisallow:\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	g := NewRobotsGate(srv.Client(), "ghcrawld-test", testLogger())
	for i := 0; i < 5; i++ {
		g.Allowed(context.Background(), srv.URL+"/repos/foo", "ghcrawld-test")
	}
	if hits != 1 {
		t.Errorf("expected robots.txt to be fetched once and cached, got %d fetches", hits)
	}
}

func TestRobotsGateFailsOpenOnFetchError(t *testing.T) {
	g := NewRobotsGate(http.DefaultClient, "ghcrawld-test", testLogger())
	// No listener on this port: the fetch itself fails.
	allowed := g.Allowed(context.Background(), "http://127.0.0.1:1/repos/foo", "ghcrawld-test")
	if !allowed {
		t.Errorf("expected a robots.txt fetch failure to fail open (allow)")
	}
}

func TestRobotsGateMalformedURLAllows(t *testing.T) {
	g := NewRobotsGate(http.DefaultClient, "ghcrawld-test", testLogger())
	if !g.Allowed(context.Background(), "://not-a-url", "ghcrawld-test") {
		t.Errorf("expected a malformed URL to fail open (allow)")
	}
}
