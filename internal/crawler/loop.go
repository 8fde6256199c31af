package crawler

import (
	"context"
	"log/slog"
	"time"
)

// loop runs Cycle repeatedly on its own goroutine until ctx is cancelled
// or stop is closed. Setting a cycle's returned delay to -1 propagates
// termination: the loop exits instead of sleeping.
type loop struct {
	name    string
	crawler *Crawler
	log     *slog.Logger
	stop    chan struct{}
	done    chan struct{}
}

func newLoop(name string, c *Crawler, log *slog.Logger) *loop {
	return &loop{
		name:    name,
		crawler: c,
		log:     log.With("loop", name),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (l *loop) run(ctx context.Context) {
	defer close(l.done)
	l.crawler.stats.ActiveLoops.Add(1)
	defer l.crawler.stats.ActiveLoops.Add(-1)
	if l.crawler.metrics != nil {
		l.crawler.metrics.ActiveLoops.Add(1)
		defer l.crawler.metrics.ActiveLoops.Add(-1)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		default:
		}

		delay := l.crawler.Cycle(ctx, l.name)
		if delay < 0 {
			l.log.Info("loop terminating on negative delay")
			return
		}
		if delay == 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-time.After(delay):
		}
	}
}

// Stop signals the loop to exit after its current cycle and blocks until
// it does.
func (l *loop) Stop() {
	close(l.stop)
	<-l.done
}
