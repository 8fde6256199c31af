package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// StatsProvider exposes the crawl engine's live counters and run state to
// the dashboard; satisfied directly by *crawler.LoopSupervisor.
type StatsProvider interface {
	GetStats() map[string]any
	GetState() string
}

// Dashboard serves the operator-facing crawl-status page and its backing
// JSON endpoint over its own listener.
type Dashboard struct {
	port     int
	provider StatsProvider
	logger   *slog.Logger
	srv      *http.Server
	addr     string
}

// NewDashboard creates a dashboard bound to a crawl engine's stats.
func NewDashboard(port int, provider StatsProvider, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		port:     port,
		provider: provider,
		logger:   logger.With("component", "dashboard"),
	}
}

// Start binds the dashboard's listener and begins serving in the
// background, returning once the bind has either succeeded or failed --
// unlike a bare http.ListenAndServe goroutine, a port already in use
// surfaces here instead of only as a later log line.
func (d *Dashboard) Start() error {
	addr := fmt.Sprintf(":%d", d.port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("dashboard listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", d.handleDashboard)
	mux.HandleFunc("/api/stats", d.handleAPIStats)
	d.srv = &http.Server{Handler: mux}
	d.addr = lis.Addr().String()

	d.logger.Info("dashboard starting", "addr", d.addr)

	go func() {
		if err := d.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("dashboard error", "error", err)
		}
	}()

	return nil
}

// Addr returns the dashboard's bound address ("host:port"), useful when
// Dashboard was constructed with port 0 for an OS-assigned port. Empty
// until Start succeeds.
func (d *Dashboard) Addr() string {
	return d.addr
}

// Shutdown stops the dashboard's listener, waiting for in-flight
// /api/stats polls to finish or ctx to expire. A no-op if Start was never
// called.
func (d *Dashboard) Shutdown(ctx context.Context) error {
	if d.srv == nil {
		return nil
	}
	return d.srv.Shutdown(ctx)
}

func (d *Dashboard) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(dashboardHTML))
}

func (d *Dashboard) handleAPIStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"service":   "ghcrawld",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if d.provider != nil {
		stats["state"] = d.provider.GetState()
		for k, v := range d.provider.GetStats() {
			stats[k] = v
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(stats)
}
