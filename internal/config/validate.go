package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Engine.LoopCount < 1 {
		return fmt.Errorf("engine.loop_count must be >= 1, got %d", cfg.Engine.LoopCount)
	}
	if cfg.Engine.LoopCount > 1000 {
		return fmt.Errorf("engine.loop_count must be <= 1000, got %d", cfg.Engine.LoopCount)
	}
	if cfg.Engine.RequestTimeout <= 0 {
		return fmt.Errorf("engine.request_timeout must be > 0")
	}
	if cfg.Engine.EmptyQueueDelay < 0 {
		return fmt.Errorf("engine.empty_queue_delay must be >= 0")
	}
	if cfg.Engine.MaxRetries < 0 {
		return fmt.Errorf("engine.max_retries must be >= 0, got %d", cfg.Engine.MaxRetries)
	}
	if cfg.Engine.LockTTL <= 0 {
		return fmt.Errorf("engine.lock_ttl must be > 0")
	}

	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.BaseURL != "" {
		if _, err := url.Parse(cfg.Fetcher.BaseURL); err != nil {
			return fmt.Errorf("invalid fetcher.base_url: %w", err)
		}
	}

	validQueueProviders := map[string]bool{"amqp": true, "memory": true}
	if !validQueueProviders[cfg.Queue.Provider] {
		return fmt.Errorf("queue.provider must be 'amqp' or 'memory', got %q", cfg.Queue.Provider)
	}
	if cfg.Queue.Provider == "amqp" && cfg.Queue.AMQPURL == "" {
		return fmt.Errorf("queue.amqp_url is required when queue.provider is 'amqp'")
	}

	validLockProviders := map[string]bool{"redis": true, "memory": true}
	if !validLockProviders[cfg.Lock.Provider] {
		return fmt.Errorf("lock.provider must be 'redis' or 'memory', got %q", cfg.Lock.Provider)
	}
	if cfg.Lock.Provider == "redis" && cfg.Lock.RedisURL == "" {
		return fmt.Errorf("lock.redis_url is required when lock.provider is 'redis'")
	}

	validStoreProviders := map[string]bool{"mongo": true, "memory": true}
	if !validStoreProviders[cfg.Store.Provider] {
		return fmt.Errorf("store.provider must be 'mongo' or 'memory', got %q", cfg.Store.Provider)
	}
	if cfg.Store.Provider == "mongo" && cfg.Store.MongoURI == "" {
		return fmt.Errorf("store.mongo_uri is required when store.provider is 'mongo'")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics.enabled is true")
	}

	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
