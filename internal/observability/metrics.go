package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for the crawl engine, exposed in
// Prometheus text exposition format for the management HTTP surface.
type Metrics struct {
	// Fetch metrics
	FetchesTotal    atomic.Int64
	FetchesFailed   atomic.Int64
	FetchesRetried  atomic.Int64
	BytesDownloaded atomic.Int64

	// Response status metrics
	Responses2xx atomic.Int64
	Responses3xx atomic.Int64
	Responses4xx atomic.Int64
	Responses5xx atomic.Int64

	// Document metrics
	DocumentsProcessed atomic.Int64
	DocumentsSkipped   atomic.Int64
	DocumentsStored    atomic.Int64

	// Engine metrics
	ActiveLoops  atomic.Int32
	QueueDepth   atomic.Int64
	DeadLettered atomic.Int64

	// Lock metrics
	LockContended atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		value int64
	}{
		{"ghcrawl_fetches_total", "Total fetches attempted", m.FetchesTotal.Load()},
		{"ghcrawl_fetches_failed_total", "Total failed fetches", m.FetchesFailed.Load()},
		{"ghcrawl_fetches_retried_total", "Total retried fetches", m.FetchesRetried.Load()},
		{"ghcrawl_bytes_downloaded_total", "Total bytes downloaded", m.BytesDownloaded.Load()},
		{"ghcrawl_responses_2xx_total", "Total 2xx responses", m.Responses2xx.Load()},
		{"ghcrawl_responses_3xx_total", "Total 3xx responses", m.Responses3xx.Load()},
		{"ghcrawl_responses_4xx_total", "Total 4xx responses", m.Responses4xx.Load()},
		{"ghcrawl_responses_5xx_total", "Total 5xx responses", m.Responses5xx.Load()},
		{"ghcrawl_documents_processed_total", "Total documents processed", m.DocumentsProcessed.Load()},
		{"ghcrawl_documents_skipped_total", "Total documents skipped", m.DocumentsSkipped.Load()},
		{"ghcrawl_documents_stored_total", "Total documents stored", m.DocumentsStored.Load()},
		{"ghcrawl_active_loops", "Currently active worker loops", int64(m.ActiveLoops.Load())},
		{"ghcrawl_queue_depth", "Current total queue depth across priority/normal/soon/dead", m.QueueDepth.Load()},
		{"ghcrawl_dead_lettered_total", "Total requests dead-lettered", m.DeadLettered.Load()},
		{"ghcrawl_lock_contended_total", "Total lock acquisitions that hit contention", m.LockContended.Load()},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s counter\n", metric.name)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"fetches_total":       m.FetchesTotal.Load(),
		"fetches_failed":      m.FetchesFailed.Load(),
		"bytes_downloaded":    m.BytesDownloaded.Load(),
		"responses_2xx":       m.Responses2xx.Load(),
		"responses_4xx":       m.Responses4xx.Load(),
		"responses_5xx":       m.Responses5xx.Load(),
		"documents_processed": m.DocumentsProcessed.Load(),
		"documents_skipped":   m.DocumentsSkipped.Load(),
		"documents_stored":    m.DocumentsStored.Load(),
		"active_loops":        int64(m.ActiveLoops.Load()),
		"queue_depth":         m.QueueDepth.Load(),
		"dead_lettered":       m.DeadLettered.Load(),
	}
}
