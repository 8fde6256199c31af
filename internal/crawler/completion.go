package crawler

import (
	"context"

	"github.com/ghcrawl/ghcrawl/internal/queue"
	"github.com/ghcrawl/ghcrawl/internal/types"
)

// completeRequest is stage 9: the two-path completion protocol. Both
// paths release the lock before acking/abandoning in the queue.
func (c *Crawler) completeRequest(ctx context.Context, req *types.Request, delivery *queue.Delivery) {
	if req.IsSentinel() {
		return
	}

	forceRequeue := false
	for _, p := range req.Promises {
		if err := <-p; err != nil {
			c.log.Warn("discovered-request enqueue failed", "url", req.URL, "error", err)
			forceRequeue = true
		}
	}

	if !forceRequeue && req.Outcome != types.OutcomeRequeued && req.Outcome != types.OutcomeError {
		c.happyPath(ctx, req, delivery)
		return
	}

	if forceRequeue && req.Outcome != types.OutcomeRequeued {
		req.MarkRequeue("promise rejected")
	}
	c.requeuePath(ctx, req, delivery)
}

// happyPath: wait already done by the caller; release then ack, or
// abandon (leave for redelivery) if the release itself fails.
func (c *Crawler) happyPath(ctx context.Context, req *types.Request, delivery *queue.Delivery) {
	releaseErr := c.releaseLock(ctx, req)
	if delivery == nil {
		return
	}
	if releaseErr != nil {
		_ = delivery.Abandon(true)
		return
	}
	_ = delivery.Ack()
}

// requeuePath implements `_requeue` then the release/ack-or-abandon tail.
func (c *Crawler) requeuePath(ctx context.Context, req *types.Request, delivery *queue.Delivery) {
	ok := c.doRequeue(ctx, req)
	if !ok {
		// _requeue itself failed: release (best effort) and always abandon
		// so the message stays in the broker for broker-level retry.
		_ = c.releaseLock(ctx, req)
		if delivery != nil {
			_ = delivery.Abandon(true)
		}
		return
	}

	releaseErr := c.releaseLock(ctx, req)
	if delivery == nil {
		return
	}
	if releaseErr != nil {
		_ = delivery.Abandon(true)
		return
	}
	_ = delivery.Ack()
}

// doRequeue is `_requeue`: increments AttemptCount; past MAX_ATTEMPTS it
// dead-letters and stops, otherwise it pushes the queuable projection onto
// Normal with the configured RetryDelay. The queue the request was popped
// from is not recorded, so a request from Priority or Soon is also
// requeued onto Normal. Returns false only when the push itself errors.
func (c *Crawler) doRequeue(ctx context.Context, req *types.Request) bool {
	next := req.Requeue()
	if next.AttemptCount > types.MaxAttempts {
		if err := c.queue.Push(ctx, queue.Dead, next, 0); err != nil {
			c.log.Error("dead-letter push failed", "url", req.URL, "error", err)
			return false
		}
		c.stats.DeadLettered.Add(1)
		if c.metrics != nil {
			c.metrics.DeadLettered.Add(1)
		}
		return true
	}

	if err := c.queue.Push(ctx, queue.Normal, next, c.cfg.RetryDelay); err != nil {
		c.log.Error("requeue push failed", "url", req.URL, "error", err)
		return false
	}
	req.Meta.Attempt = next.AttemptCount
	return true
}

// releaseLock unlocks req's held lease. A failure is logged, never
// panics or retries, but is still reported to the caller so the
// completion protocol can choose abandon over ack — the lease itself is
// simply left to expire either way.
func (c *Crawler) releaseLock(ctx context.Context, req *types.Request) error {
	if req.Lock == nil || c.locks == nil {
		return nil
	}
	if err := c.locks.Release(ctx, req.Lock); err != nil {
		c.log.Warn("unlock failed, lease left to expire", "url", req.URL, "error", err)
		return err
	}
	return nil
}
