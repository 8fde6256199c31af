package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghcrawl/ghcrawl/internal/config"
	"github.com/ghcrawl/ghcrawl/internal/queue"
)

// LoopSupervisor owns the pool of concurrent worker loops: it spawns N
// loops, can grow or shrink the pool live in response to a config change,
// and reports how many loops are currently running. Grounded on the
// teacher's Scheduler worker-pool shape, generalized from a fixed
// concurrency to a dynamically resizable one.
type LoopSupervisor struct {
	crawler *Crawler
	log     *slog.Logger

	mu      sync.Mutex
	loops   []*loop
	ctx     context.Context
	cancel  context.CancelFunc
	counter atomic.Int64
	wg      sync.WaitGroup
}

// NewLoopSupervisor builds a supervisor over c. Run must be called to
// start any loops.
func NewLoopSupervisor(c *Crawler, log *slog.Logger) *LoopSupervisor {
	return &LoopSupervisor{crawler: c, log: log.With("component", "supervisor")}
}

// Run starts count loops under ctx; cancelling ctx stops all loops.
func (s *LoopSupervisor) Run(ctx context.Context, count int) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.crawler.stats.StartTime = time.Now()
	s.mu.Unlock()
	s.SetCount(count)
	if s.crawler.metrics != nil {
		go s.pollQueueDepth(s.ctx)
	}
}

// pollQueueDepth periodically sums the depth of every named queue into
// the queue_depth gauge; Len is defined as approximate so a short poll
// interval rather than an update on every push/pop is an acceptable cost.
func (s *LoopSupervisor) pollQueueDepth(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	names := []queue.Name{queue.Priority, queue.Normal, queue.Soon, queue.Dead}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var total int64
			for _, n := range names {
				if depth, err := s.crawler.queue.Len(ctx, n); err == nil {
					total += int64(depth)
				}
			}
			s.crawler.metrics.QueueDepth.Store(total)
		}
	}
}

// SetCount grows or shrinks the running pool to exactly n loops.
func (s *LoopSupervisor) SetCount(n int) {
	if n < 0 {
		n = 0
	}
	s.mu.Lock()
	var toStop []*loop
	for len(s.loops) < n {
		l := newLoop(fmt.Sprintf("loop-%d", s.counter.Add(1)), s.crawler, s.log)
		s.loops = append(s.loops, l)
		s.wg.Add(1)
		ctx := s.ctx
		go func(l *loop) {
			defer s.wg.Done()
			l.run(ctx)
		}(l)
	}
	for len(s.loops) > n {
		last := s.loops[len(s.loops)-1]
		s.loops = s.loops[:len(s.loops)-1]
		toStop = append(toStop, last)
	}
	s.mu.Unlock()

	for _, l := range toStop {
		l.Stop()
	}
	s.log.Info("loop pool resized", "count", n)
}

// Status reports the number of currently running loops.
func (s *LoopSupervisor) Status() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loops)
}

// GetStats implements dashboard.StatsProvider.
func (s *LoopSupervisor) GetStats() map[string]any {
	return s.crawler.stats.Snapshot()
}

// GetState implements dashboard.StatsProvider.
func (s *LoopSupervisor) GetState() string {
	switch n := s.Status(); {
	case n == 0:
		return "idle"
	default:
		return "running"
	}
}

// Stop halts every running loop and waits for them to exit.
func (s *LoopSupervisor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.mu.Lock()
	s.loops = nil
	s.mu.Unlock()
}

// ReactToChanges watches a config.Watcher's diff stream and applies a
// changed engine.loop_count live, the only setting the engine reacts to
// without a restart.
func (s *LoopSupervisor) ReactToChanges(ctx context.Context, changes <-chan []config.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch, ok := <-changes:
			if !ok {
				return
			}
			for _, ch := range batch {
				if ch.Path != "/engine" {
					continue
				}
				obj, ok := ch.Value.(map[string]any)
				if !ok {
					continue
				}
				raw, ok := obj["loop_count"]
				if !ok {
					continue
				}
				n, ok := toInt(raw)
				if !ok {
					continue
				}
				s.log.Info("applying live loop_count change", "loop_count", n)
				s.SetCount(n)
			}
		}
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
