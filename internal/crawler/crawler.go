// Package crawler implements the Crawler component: the per-request
// pipeline that pops work from the QueueSet, acquires a lock, fetches,
// converts, processes, stores, and completes a Request, plus the
// LoopSupervisor that runs many such cycles concurrently.
package crawler

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ghcrawl/ghcrawl/internal/fetcher"
	"github.com/ghcrawl/ghcrawl/internal/lock"
	"github.com/ghcrawl/ghcrawl/internal/observability"
	"github.com/ghcrawl/ghcrawl/internal/processor"
	"github.com/ghcrawl/ghcrawl/internal/queue"
	"github.com/ghcrawl/ghcrawl/internal/store"
	"github.com/ghcrawl/ghcrawl/internal/types"
)

// Config bounds the per-cycle policy of a Crawler: lock TTL, empty-queue
// polling delay, and retry backoff, independent of any one Request.
type Config struct {
	ProcessingTTL time.Duration
	EmptyDelay    time.Duration
	RetryDelay    time.Duration
	OrgAllowlist  []string
}

// Crawler wires the Queue/Lock/Fetcher/Store/Processor components shared,
// read-only, across every worker loop: all per-request mutation happens
// on the Request itself, never on the Crawler.
type Crawler struct {
	queue     queue.Set
	locks     lock.Service
	fetcher   fetcher.Fetcher
	store     store.Store
	processor *processor.Registry
	cfg       Config
	log       *slog.Logger
	stats     *Stats
	metrics   *observability.Metrics
}

// New builds a Crawler over the given components. metrics may be nil, in
// which case only Stats (used for the operator dashboard) is kept.
func New(q queue.Set, locks lock.Service, f fetcher.Fetcher, s store.Store, proc *processor.Registry, cfg Config, log *slog.Logger, stats *Stats, metrics *observability.Metrics) *Crawler {
	return &Crawler{
		queue:     q,
		locks:     locks,
		fetcher:   f,
		store:     s,
		processor: proc,
		cfg:       cfg,
		log:       log.With("component", "crawler"),
		stats:     stats,
		metrics:   metrics,
	}
}

// Cycle runs one trip of the ten-stage pipeline for loopName and returns
// the delay the owning loop should wait before its next Cycle call.
func (c *Crawler) Cycle(ctx context.Context, loopName string) time.Duration {
	req, delivery := c.getRequest(ctx, loopName)

	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic in cycle, routing to requeue path", "loop", loopName, "panic", r)
			req.MarkRequeue("panic")
			c.completeRequest(ctx, req, delivery)
		}
	}()

	c.acquireLock(ctx, req)
	c.filter(req)
	c.fetch(ctx, req)
	c.convertToDocument(req)
	c.processDocument(req)
	c.storeDocument(ctx, req)
	c.completeRequest(ctx, req, delivery)
	c.logOutcome(req)

	return c.nextDelay(req)
}

// getRequest is stage 1: pop from the QueueSet, or synthesize a `_blank`
// sentinel carrying a polling delay when nothing is ready.
func (c *Crawler) getRequest(ctx context.Context, loopName string) (*types.Request, *queue.Delivery) {
	delivery, err := c.queue.Pop(ctx)
	if err != nil {
		req := types.NewErrorTrapRequest(err, c.cfg.EmptyDelay)
		req.LoopName = loopName
		return req, nil
	}
	req := delivery.Request
	req.Start = time.Now()
	req.LoopName = loopName
	return req, delivery
}

// acquireLock is stage 2.
func (c *Crawler) acquireLock(ctx context.Context, req *types.Request) {
	if req.IsSentinel() || req.URL == "" || c.locks == nil {
		return
	}
	start := time.Now()
	lease, err := c.locks.Acquire(ctx, req.URL, c.cfg.ProcessingTTL)
	req.Meta.LockMS = time.Since(start).Milliseconds()
	if err != nil {
		if types.IsLockExceeded(err) {
			if c.metrics != nil {
				c.metrics.LockContended.Add(1)
			}
			req.MarkRequeue("Could not lock")
		} else {
			req.MarkRequeue("Error")
		}
		return
	}
	req.Lock = lease
}

// filter is stage 3: malformed requests dead-letter; org-allowlisted
// types not in the allowlist are dropped without dead-lettering.
func (c *Crawler) filter(req *types.Request) {
	if req.IsSentinel() || req.ShouldSkip() {
		return
	}
	if req.Type == "" || req.URL == "" {
		req.MarkSkip("Error malformed")
		_ = c.queue.Push(context.Background(), queue.Dead, req, 0)
		return
	}
	if len(c.cfg.OrgAllowlist) == 0 {
		return
	}
	switch req.Type {
	case "repo", "repos", "org":
		org := pathSegment(req.URL, 2)
		if org != "" && !contains(c.cfg.OrgAllowlist, org) {
			req.MarkSkip("Filtered")
		}
	}
}

// fetch is stage 4.
func (c *Crawler) fetch(ctx context.Context, req *types.Request) {
	if req.IsSentinel() || req.ShouldSkip() {
		return
	}
	if req.Policy != nil && !req.Policy.ShouldFetch() {
		req.MarkSkip("Policy")
		return
	}
	if !c.fetcher.Allowed(ctx, req.URL) {
		req.MarkSkip("Excluded")
		return
	}

	etag, _, _ := c.store.ETag(ctx, req.Type, req.URL)
	if version, err := c.store.Version(ctx, req.Type, req.URL); err == nil {
		req.StoredVersion = version
	} else {
		req.StoredVersion = -1
	}

	start := time.Now()
	meta, err := c.fetcher.Fetch(ctx, req, etag)
	req.Meta.FetchMS = time.Since(start).Milliseconds()

	if c.metrics != nil {
		c.metrics.FetchesTotal.Add(1)
	}

	if err != nil {
		if c.metrics != nil {
			c.metrics.FetchesFailed.Add(1)
		}
		var fe *types.FetchError
		if errors.As(err, &fe) {
			req.Meta.Status = fe.StatusCode
			if fe.Retryable {
				if c.metrics != nil {
					c.metrics.FetchesRetried.Add(1)
				}
				req.MarkRequeue("Error")
			} else {
				req.MarkError(err)
			}
			return
		}
		req.MarkError(err)
		return
	}

	req.Meta.Status = meta.StatusCode
	req.Response = meta
	if c.metrics != nil {
		c.metrics.BytesDownloaded.Add(int64(len(meta.Body)))
		switch meta.StatusCode / 100 {
		case 2:
			c.metrics.Responses2xx.Add(1)
		case 3:
			c.metrics.Responses3xx.Add(1)
		case 4:
			c.metrics.Responses4xx.Add(1)
		case 5:
			c.metrics.Responses5xx.Add(1)
		}
	}

	switch {
	case meta.IsEmptyRepo():
		req.MarkSkip("Empty repo")
	case meta.Unmodified:
		if req.Context.Force {
			doc, found, derr := c.store.Get(ctx, req.Type, req.URL)
			if derr == nil && found {
				req.Document = doc
			}
		} else {
			req.MarkSkip("Unmodified")
		}
	}
}

// convertToDocument is stage 5.
func (c *Crawler) convertToDocument(req *types.Request) {
	if req.IsSentinel() || req.ShouldSkip() || req.Response == nil {
		return
	}
	doc := decodeBody(req.Response)
	doc["_metadata"] = map[string]any{
		"type":      req.Type,
		"url":       req.URL,
		"fetchedAt": req.Response.FetchedAt.UTC().Format(time.RFC3339),
		"etag":      req.Response.ETag,
		"links":     map[string]any{},
	}
	if link := req.Response.LinkHeader(); link != "" {
		doc["_metadata"].(map[string]any)["headers"] = map[string]any{"link": link}
	}
	req.Document = doc
}

// processDocument is stage 6: runs the Processor and translates its
// Result into link annotations on the document plus newly discovered
// Requests pushed back onto the QueueSet.
func (c *Crawler) processDocument(req *types.Request) {
	if req.IsSentinel() || req.ShouldSkip() || req.Document == nil {
		return
	}
	if req.Policy != nil && !req.Policy.ShouldProcess(req, processorVersion(c.processor)) {
		req.MarkSkip("Excluded")
		return
	}

	result, err := c.processor.Dispatch(req, req.Document)
	if err != nil {
		if req.Message == "" {
			req.MarkSkip("No handler")
		}
		return
	}

	links := map[string]any{}
	for _, l := range result.Links {
		links[l.Name] = map[string]any{"type": l.Type, "kind": l.Kind.String(), "urn": l.Qualifier}
	}
	if meta, ok := req.Document["_metadata"].(map[string]any); ok {
		meta["links"] = links
		meta["version"] = processorVersion(c.processor)
	}

	for _, d := range result.Discovered {
		qname := queue.Normal
		switch d.Queue {
		case "soon":
			qname = queue.Soon
		case "priority":
			qname = queue.Priority
		}
		ch := make(chan error, 1)
		go func(qname queue.Name, r *types.Request) {
			ch <- c.queue.Push(context.Background(), qname, r, 0)
		}(qname, d.Request)
		req.Promises = append(req.Promises, ch)
	}
}

// storeDocument is stage 7.
func (c *Crawler) storeDocument(ctx context.Context, req *types.Request) {
	if req.IsSentinel() || req.ShouldSkip() || req.Document == nil {
		return
	}
	if req.Policy != nil && !req.Policy.ShouldSave() {
		return
	}
	start := time.Now()
	err := c.store.Upsert(ctx, req.Type, req.URL, req.Document)
	req.Meta.StoreMS = time.Since(start).Milliseconds()
	if err != nil {
		req.MarkRequeue("Error")
		return
	}
	if c.metrics != nil {
		c.metrics.DocumentsStored.Add(1)
	}
	if req.Outcome == types.OutcomeNone {
		req.MarkProcessed()
	}
}

// logOutcome is stage 10.
func (c *Crawler) logOutcome(req *types.Request) {
	shortForm := ""
	if req.Policy != nil {
		shortForm = req.Policy.ShortForm()
	}
	switch req.Outcome {
	case types.OutcomeProcessed:
		c.stats.Processed.Add(1)
		if c.metrics != nil {
			c.metrics.DocumentsProcessed.Add(1)
		}
		c.log.Info("processed", "type", req.Type, "url", req.URL, "policy", shortForm, "meta", req.Meta)
	case types.OutcomeSkipped:
		c.stats.Skipped.Add(1)
		if c.metrics != nil {
			c.metrics.DocumentsSkipped.Add(1)
		}
		c.log.Debug("skipped", "type", req.Type, "url", req.URL, "message", req.Message, "policy", shortForm)
	case types.OutcomeRequeued:
		c.stats.Requeued.Add(1)
		c.log.Warn("requeued", "type", req.Type, "url", req.URL, "message", req.Message)
	case types.OutcomeError:
		c.stats.Errors.Add(1)
		c.log.Error("error", "type", req.Type, "url", req.URL, "message", req.Message)
	}
}

// nextDelay computes the cooperative delay at the end of a cycle:
// max(0, max(contextGate, request.nextRequestTime, now) - now). Sentinels
// carry their own poll delay as NextRequestTime (contextGate); a requeued
// real request is additionally gated by the configured retry backoff;
// anything else proceeds immediately.
func (c *Crawler) nextDelay(req *types.Request) time.Duration {
	now := time.Now()
	gate := now

	if req.IsSentinel() {
		if req.NextRequestTime.After(gate) {
			gate = req.NextRequestTime
		}
	} else if req.Outcome == types.OutcomeRequeued {
		gate = now.Add(c.cfg.RetryDelay)
	}

	if req.NextRequestTime.After(gate) {
		gate = req.NextRequestTime
	}

	d := gate.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func processorVersion(_ *processor.Registry) int { return processor.Version }

func pathSegment(rawURL string, n int) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if n < 1 || n > len(parts) {
		return ""
	}
	return parts[n-1]
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
