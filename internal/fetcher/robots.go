package fetcher

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsGate enforces robots.txt, replacing the teacher's hand-rolled
// parser with github.com/temoto/robotstxt, which already covers the
// wildcard/anchor matching rules correctly rather than reimplementing
// them.
type RobotsGate struct {
	client *http.Client
	log    *slog.Logger

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData
}

// NewRobotsGate builds a gate that shares client's transport for fetching
// robots.txt itself.
func NewRobotsGate(client *http.Client, userAgent string, log *slog.Logger) *RobotsGate {
	return &RobotsGate{
		client: client,
		log:    log.With("component", "fetcher.robots"),
		cache:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether userAgent may fetch rawURL. Robots.txt fetch
// failures fail open (allow), matching the teacher's "can't fetch
// robots.txt = allow" stance.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL, userAgent string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	origin := u.Scheme + "://" + u.Host

	data := g.get(ctx, origin)
	if data == nil {
		return true
	}
	return data.FindGroup(userAgent).Test(u.Path)
}

func (g *RobotsGate) get(ctx context.Context, origin string) *robotstxt.RobotsData {
	g.mu.RLock()
	data, ok := g.cache[origin]
	g.mu.RUnlock()
	if ok {
		return data
	}

	data = g.fetch(ctx, origin)

	g.mu.Lock()
	g.cache[origin] = data
	g.mu.Unlock()
	return data
}

func (g *RobotsGate) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Debug("robots.txt fetch failed, allowing", "origin", origin, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		g.log.Debug("robots.txt parse failed, allowing", "origin", origin, "error", err)
		return nil
	}
	return data
}
