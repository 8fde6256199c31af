package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"
)

type stubProvider struct {
	state string
	stats map[string]any
}

func (p stubProvider) GetState() string         { return p.state }
func (p stubProvider) GetStats() map[string]any { return p.stats }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDashboardServesHTMLAndStats(t *testing.T) {
	provider := stubProvider{state: "running", stats: map[string]any{"processed": int64(4)}}
	d := NewDashboard(0, provider, testLogger())

	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		d.Shutdown(ctx)
	}()

	if d.Addr() == "" {
		t.Fatalf("expected Addr() to report the bound address after Start")
	}

	resp, err := http.Get("http://" + d.Addr() + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "<html") {
		t.Errorf("expected the dashboard page to be HTML, got %q", string(body))
	}

	resp, err = http.Get("http://" + d.Addr() + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	defer resp.Body.Close()
	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["state"] != "running" {
		t.Errorf("expected state=running, got %+v", stats)
	}
	if stats["processed"] != float64(4) {
		t.Errorf("expected processed=4, got %+v", stats)
	}
	if stats["service"] != "ghcrawld" {
		t.Errorf("expected a service identifier in the stats payload, got %+v", stats)
	}
}

func TestDashboardShutdownWithoutStartIsNoop(t *testing.T) {
	d := NewDashboard(0, nil, testLogger())
	if err := d.Shutdown(context.Background()); err != nil {
		t.Errorf("expected Shutdown before Start to be a no-op, got %v", err)
	}
}

func TestDashboardStatsWithoutProviderOmitsState(t *testing.T) {
	d := NewDashboard(0, nil, testLogger())
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		d.Shutdown(ctx)
	}()

	resp, err := http.Get("http://" + d.Addr() + "/api/stats")
	if err != nil {
		t.Fatalf("GET /api/stats: %v", err)
	}
	defer resp.Body.Close()
	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if _, ok := stats["state"]; ok {
		t.Errorf("expected no state key without a provider, got %+v", stats)
	}
}
