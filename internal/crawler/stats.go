package crawler

import (
	"sync/atomic"
	"time"
)

// Stats tracks crawl cycle outcomes, grounded on the teacher's engine.Stats
// atomic-counter shape.
type Stats struct {
	Processed    atomic.Int64
	Skipped      atomic.Int64
	Requeued     atomic.Int64
	DeadLettered atomic.Int64
	Errors       atomic.Int64
	ActiveLoops  atomic.Int32
	StartTime    time.Time
}

// Snapshot returns a point-in-time copy of the counters, safe for logging
// or an operator status endpoint.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"processed":     s.Processed.Load(),
		"skipped":       s.Skipped.Load(),
		"requeued":      s.Requeued.Load(),
		"dead_lettered": s.DeadLettered.Load(),
		"errors":        s.Errors.Load(),
		"active_loops":  s.ActiveLoops.Load(),
		"elapsed":       time.Since(s.StartTime).String(),
	}
}
