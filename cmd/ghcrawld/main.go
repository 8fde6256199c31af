package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ghcrawl/ghcrawl/internal/config"
	"github.com/ghcrawl/ghcrawl/internal/crawler"
	"github.com/ghcrawl/ghcrawl/internal/dashboard"
	"github.com/ghcrawl/ghcrawl/internal/fetcher"
	"github.com/ghcrawl/ghcrawl/internal/lock"
	"github.com/ghcrawl/ghcrawl/internal/observability"
	"github.com/ghcrawl/ghcrawl/internal/policy"
	"github.com/ghcrawl/ghcrawl/internal/processor"
	"github.com/ghcrawl/ghcrawl/internal/queue"
	"github.com/ghcrawl/ghcrawl/internal/store"
	"github.com/ghcrawl/ghcrawl/internal/types"
)

var (
	cfgFile     string
	verbose     bool
	seedType    string
	dashboardOn bool
	dashboardPt int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ghcrawld",
		Short: "ghcrawld — durable, distributed hypermedia-API crawler",
		Long: `ghcrawld crawls a hypermedia JSON API (organizations, repositories,
users, issues and the events that link them) into a queryable document
store.

Features:
  • Durable priority/normal/soon/dead QueueSet, in-memory or RabbitMQ
  • Leased LockService so only one loop ever works a URL at a time
  • Conditional HTTP fetch (ETag, robots.txt) with brotli/gzip/deflate
  • Tagged Processor registry with hypermedia link discovery
  • Live-reloadable engine.loop_count via a watched config file
  • Prometheus metrics and an operator dashboard`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [seed-url...]",
		Short: "Start the crawl engine",
		Long:  "Start the loop pool, seeding the QueueSet with the given URLs (each tagged --seed-type, default \"org\").",
		RunE:  runEngine,
	}
	cmd.Flags().StringVar(&seedType, "seed-type", "org", "resource type to tag seed URLs with")
	cmd.Flags().BoolVar(&dashboardOn, "dashboard", true, "serve the operator dashboard")
	cmd.Flags().IntVar(&dashboardPt, "dashboard-port", 8081, "operator dashboard port")
	return cmd
}

func runEngine(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	q, err := buildQueue(cfg, logger)
	if err != nil {
		return fmt.Errorf("build queue: %w", err)
	}
	defer q.Close()

	locks, err := buildLocks(cfg)
	if err != nil {
		return fmt.Errorf("build lock service: %w", err)
	}
	defer locks.Close()

	st, err := buildStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer st.Close(context.Background())

	httpFetcher, err := fetcher.NewHTTPFetcher(cfg, logger)
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}
	defer httpFetcher.Close()

	reg := processor.NewRegistry()
	processor.RegisterRootHandlers(reg)
	processor.RegisterCollectionHandlers(reg)
	processor.RegisterEventHandlers(reg)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		if err := metrics.StartServer(portFromAddr(cfg.Metrics.Addr), cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
	}

	stats := &crawler.Stats{}
	engineCfg := crawler.Config{
		ProcessingTTL: cfg.Engine.LockTTL,
		EmptyDelay:    cfg.Engine.EmptyQueueDelay,
		RetryDelay:    cfg.Engine.RetryBaseDelay,
		OrgAllowlist:  cfg.Engine.OrgAllowlist,
	}
	crw := crawler.New(q, locks, httpFetcher, st, reg, engineCfg, logger, stats, metrics)
	supervisor := crawler.NewLoopSupervisor(crw, logger)

	var dash *dashboard.Dashboard
	if dashboardOn {
		dash = dashboard.NewDashboard(dashboardPt, supervisor, logger)
		if err := dash.Start(); err != nil {
			logger.Warn("failed to start dashboard", "error", err)
			dash = nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seed(ctx, q, args, seedType); err != nil {
		return fmt.Errorf("seed queue: %w", err)
	}

	var watcher *config.Watcher
	if cfgFile != "" {
		watcher, err = config.NewWatcher(cfgFile, logger)
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		} else {
			defer watcher.Close()
			go supervisor.ReactToChanges(ctx, watcher.Changes())
		}
	}

	logger.Info("starting engine", "loops", cfg.Engine.LoopCount, "seeds", len(args))
	supervisor.Run(ctx, cfg.Engine.LoopCount)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	cancel()
	supervisor.Stop()
	if dash != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := dash.Shutdown(shutdownCtx); err != nil {
			logger.Warn("dashboard shutdown error", "error", err)
		}
	}
	logger.Info("engine stopped", "stats", stats.Snapshot())
	return nil
}

// seed pushes one Priority-queue Request per argument so an operator's
// initial crawl targets are worked ahead of anything already discovered.
func seed(ctx context.Context, q queue.Set, urls []string, resourceType string) error {
	for _, u := range urls {
		req := &types.Request{
			Kind:   types.KindReal,
			Type:   resourceType,
			URL:    u,
			Policy: policy.NewDefault(),
		}
		if err := q.Push(ctx, queue.Priority, req, 0); err != nil {
			return fmt.Errorf("push seed %q: %w", u, err)
		}
	}
	return nil
}

func buildQueue(cfg *config.Config, logger *slog.Logger) (queue.Set, error) {
	switch cfg.Queue.Provider {
	case "amqp":
		return queue.NewAMQPSet(queue.AMQPConfig{URL: cfg.Queue.AMQPURL, Prefix: cfg.Queue.Prefix}, logger)
	default:
		return queue.NewMemorySet(), nil
	}
}

func buildLocks(cfg *config.Config) (lock.Service, error) {
	switch cfg.Lock.Provider {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisURL})
		return lock.NewRedisService(client, cfg.Lock.Prefix), nil
	default:
		return lock.NewMemoryService(), nil
	}
}

func buildStore(cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Provider {
	case "mongo":
		return store.NewMongoStore(cfg.Store.MongoURI, cfg.Store.Database, cfg.Store.Collection, logger)
	default:
		return store.NewMemoryStore(), nil
	}
}

// portFromAddr extracts the numeric port from a ":NNNN"-style address;
// Metrics.StartServer wants the bare port, not the full listen address.
func portFromAddr(addr string) int {
	port := 0
	start := -1
	for i, r := range addr {
		if r == ':' {
			start = i + 1
			break
		}
	}
	if start < 0 || start >= len(addr) {
		return 9090
	}
	for _, r := range addr[start:] {
		if r < '0' || r > '9' {
			break
		}
		port = port*10 + int(r-'0')
	}
	if port == 0 {
		return 9090
	}
	return port
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ghcrawld %s\n", config.Version)
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Engine:\n")
			fmt.Printf("  Loop Count:        %d\n", cfg.Engine.LoopCount)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Engine.RequestTimeout)
			fmt.Printf("  Empty Queue Delay: %s\n", cfg.Engine.EmptyQueueDelay)
			fmt.Printf("  Max Retries:       %d\n", cfg.Engine.MaxRetries)
			fmt.Printf("  Retry Base Delay:  %s\n", cfg.Engine.RetryBaseDelay)
			fmt.Printf("  Lock TTL:          %s\n", cfg.Engine.LockTTL)
			fmt.Printf("  Org Allowlist:     %v\n", cfg.Engine.OrgAllowlist)
			fmt.Printf("\nQueue:\n")
			fmt.Printf("  Provider:          %s\n", cfg.Queue.Provider)
			fmt.Printf("\nLock:\n")
			fmt.Printf("  Provider:          %s\n", cfg.Lock.Provider)
			fmt.Printf("\nStore:\n")
			fmt.Printf("  Provider:          %s\n", cfg.Store.Provider)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Addr:              %s\n", cfg.Metrics.Addr)
			return nil
		},
	}
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
