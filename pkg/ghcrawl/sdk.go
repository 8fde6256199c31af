// Package ghcrawl provides a public SDK for embedding the crawl engine as
// a library, rather than driving it through the ghcrawld binary.
//
// Example usage:
//
//	c := ghcrawl.NewCrawler(
//	    ghcrawl.WithLoopCount(5),
//	    ghcrawl.WithStoreProvider("memory", ""),
//	)
//	c.RegisterHandler("widget", myWidgetHandler)
//	ctx := context.Background()
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Stop()
//	c.Seed(ctx, "widget", "https://api.example.com/widgets/1")
package ghcrawl

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/ghcrawl/ghcrawl/internal/config"
	"github.com/ghcrawl/ghcrawl/internal/crawler"
	"github.com/ghcrawl/ghcrawl/internal/fetcher"
	"github.com/ghcrawl/ghcrawl/internal/lock"
	"github.com/ghcrawl/ghcrawl/internal/observability"
	"github.com/ghcrawl/ghcrawl/internal/policy"
	"github.com/ghcrawl/ghcrawl/internal/processor"
	"github.com/ghcrawl/ghcrawl/internal/queue"
	"github.com/ghcrawl/ghcrawl/internal/store"
	"github.com/ghcrawl/ghcrawl/internal/types"
)

// Crawler is the high-level API for embedding ghcrawl as a library.
type Crawler struct {
	cfg        *config.Config
	logger     *slog.Logger
	registry   *processor.Registry
	supervisor *crawler.LoopSupervisor

	queue queue.Set
	locks lock.Service
	store store.Store
	fetch fetcher.Fetcher
}

// Option configures a Crawler's underlying config before Start builds its
// components.
type Option func(*config.Config)

// WithLoopCount sets the number of concurrent worker loops.
func WithLoopCount(n int) Option {
	return func(c *config.Config) { c.Engine.LoopCount = n }
}

// WithOrgAllowlist restricts org/repo requests to the given orgs.
func WithOrgAllowlist(orgs ...string) Option {
	return func(c *config.Config) { c.Engine.OrgAllowlist = orgs }
}

// WithQueueProvider selects "memory" (default) or "amqp".
func WithQueueProvider(provider, amqpURL string) Option {
	return func(c *config.Config) {
		c.Queue.Provider = provider
		c.Queue.AMQPURL = amqpURL
	}
}

// WithLockProvider selects "memory" (default) or "redis".
func WithLockProvider(provider, redisAddr string) Option {
	return func(c *config.Config) {
		c.Lock.Provider = provider
		c.Lock.RedisURL = redisAddr
	}
}

// WithStoreProvider selects "memory" (default) or "mongo".
func WithStoreProvider(provider, mongoURI string) Option {
	return func(c *config.Config) {
		c.Store.Provider = provider
		c.Store.MongoURI = mongoURI
	}
}

// WithAPIToken sets the bearer token sent with every fetch.
func WithAPIToken(token string) Option {
	return func(c *config.Config) { c.Fetcher.APIToken = token }
}

// WithRespectRobots toggles robots.txt enforcement.
func WithRespectRobots(respect bool) Option {
	return func(c *config.Config) { c.Fetcher.RespectRobots = respect }
}

// WithMetrics enables the Prometheus metrics surface on addr.
func WithMetrics(addr, path string) Option {
	return func(c *config.Config) {
		c.Metrics.Enabled = true
		c.Metrics.Addr = addr
		c.Metrics.Path = path
	}
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Logging.Level = "debug" }
}

// NewCrawler builds a Crawler with the given options layered over
// config.DefaultConfig. Root, collection, and event handlers are
// registered automatically; use RegisterHandler to add or override one
// for a custom resource type before calling Start.
func NewCrawler(opts ...Option) *Crawler {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.Logging.Level == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reg := processor.NewRegistry()
	processor.RegisterRootHandlers(reg)
	processor.RegisterCollectionHandlers(reg)
	processor.RegisterEventHandlers(reg)

	return &Crawler{cfg: cfg, logger: logger, registry: reg}
}

// RegisterHandler binds a custom Handler for resourceType, replacing any
// built-in handler already registered for it.
func (c *Crawler) RegisterHandler(resourceType string, h processor.Handler) {
	c.registry.Register(resourceType, h)
}

// Seed pushes a Priority-queue Request for url tagged as resourceType.
// Must be called after Start so the underlying QueueSet exists.
func (c *Crawler) Seed(ctx context.Context, resourceType, url string) error {
	if c.queue == nil {
		return fmt.Errorf("ghcrawl: Seed called before Start")
	}
	req := &types.Request{
		Kind:   types.KindReal,
		Type:   resourceType,
		URL:    url,
		Policy: policy.NewDefault(),
	}
	return c.queue.Push(ctx, queue.Priority, req, 0)
}

// Start builds the Queue/Lock/Store/Fetcher components per the configured
// providers and starts the loop pool under ctx. Cancelling ctx (or
// calling Stop) halts every loop.
func (c *Crawler) Start(ctx context.Context) error {
	var err error

	switch c.cfg.Queue.Provider {
	case "amqp":
		c.queue, err = queue.NewAMQPSet(queue.AMQPConfig{URL: c.cfg.Queue.AMQPURL, Prefix: c.cfg.Queue.Prefix}, c.logger)
	default:
		c.queue = queue.NewMemorySet()
	}
	if err != nil {
		return fmt.Errorf("build queue: %w", err)
	}

	switch c.cfg.Lock.Provider {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: c.cfg.Lock.RedisURL})
		c.locks = lock.NewRedisService(client, c.cfg.Lock.Prefix)
	default:
		c.locks = lock.NewMemoryService()
	}

	switch c.cfg.Store.Provider {
	case "mongo":
		c.store, err = store.NewMongoStore(c.cfg.Store.MongoURI, c.cfg.Store.Database, c.cfg.Store.Collection, c.logger)
	default:
		c.store = store.NewMemoryStore()
	}
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}

	c.fetch, err = fetcher.NewHTTPFetcher(c.cfg, c.logger)
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}

	var metrics *observability.Metrics
	if c.cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(c.logger)
	}

	engineCfg := crawler.Config{
		ProcessingTTL: c.cfg.Engine.LockTTL,
		EmptyDelay:    c.cfg.Engine.EmptyQueueDelay,
		RetryDelay:    c.cfg.Engine.RetryBaseDelay,
		OrgAllowlist:  c.cfg.Engine.OrgAllowlist,
	}
	crw := crawler.New(c.queue, c.locks, c.fetch, c.store, c.registry, engineCfg, c.logger, &crawler.Stats{}, metrics)
	c.supervisor = crawler.NewLoopSupervisor(crw, c.logger)
	c.supervisor.Run(ctx, c.cfg.Engine.LoopCount)
	return nil
}

// Stop halts every running loop and waits for them to exit, then closes
// the underlying components.
func (c *Crawler) Stop() {
	if c.supervisor != nil {
		c.supervisor.Stop()
	}
	if c.fetch != nil {
		c.fetch.Close()
	}
	if c.store != nil {
		c.store.Close(context.Background())
	}
	if c.locks != nil {
		c.locks.Close()
	}
	if c.queue != nil {
		c.queue.Close()
	}
}

// Stats returns a point-in-time snapshot of crawl counters.
func (c *Crawler) Stats() map[string]any {
	if c.supervisor == nil {
		return nil
	}
	return c.supervisor.GetStats()
}

// SetLoopCount grows or shrinks the running pool live.
func (c *Crawler) SetLoopCount(n int) {
	if c.supervisor != nil {
		c.supervisor.SetCount(n)
	}
}
