package config

import (
	"time"
)

// Version is set at build time via ldflags. It is the build version only;
// ShouldProcess compares stored documents against processor.Version.
var Version = "dev"

// Config is the root configuration for ghcrawl.
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"   yaml:"engine"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Queue    QueueConfig    `mapstructure:"queue"    yaml:"queue"`
	Lock     LockConfig     `mapstructure:"lock"     yaml:"lock"`
	Store    StoreConfig    `mapstructure:"store"    yaml:"store"`
	Policy   PolicyConfig   `mapstructure:"policy"   yaml:"policy"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"  yaml:"metrics"`
}

// EngineConfig controls the crawler's loop pool and traversal limits.
type EngineConfig struct {
	LoopCount          int           `mapstructure:"loop_count"           yaml:"loop_count"`
	Name               string        `mapstructure:"name"                 yaml:"name"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"      yaml:"request_timeout"`
	EmptyQueueDelay     time.Duration `mapstructure:"empty_queue_delay"    yaml:"empty_queue_delay"`
	MaxRetries         int           `mapstructure:"max_retries"          yaml:"max_retries"`
	RetryBaseDelay     time.Duration `mapstructure:"retry_base_delay"     yaml:"retry_base_delay"`
	LockTTL            time.Duration `mapstructure:"lock_ttl"             yaml:"lock_ttl"`
	OrgAllowlist       []string      `mapstructure:"org_allowlist"        yaml:"org_allowlist"`
}

// FetcherConfig controls the HTTP fetcher.
type FetcherConfig struct {
	BaseURL         string        `mapstructure:"base_url"          yaml:"base_url"`
	APIToken        string        `mapstructure:"api_token"         yaml:"api_token"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	RespectRobots   bool          `mapstructure:"respect_robots"    yaml:"respect_robots"`
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
}

// QueueConfig selects and configures the QueueSet backend.
type QueueConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "amqp" or "memory"
	AMQPURL  string `mapstructure:"amqp_url" yaml:"amqp_url"`
	Prefix   string `mapstructure:"prefix"   yaml:"prefix"`
}

// LockConfig selects and configures the LockService backend.
type LockConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"` // "redis" or "memory"
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
	Prefix   string `mapstructure:"prefix"    yaml:"prefix"`
}

// StoreConfig selects and configures the Store backend.
type StoreConfig struct {
	Provider   string `mapstructure:"provider"   yaml:"provider"` // "mongo" or "memory"
	MongoURI   string `mapstructure:"mongo_uri"   yaml:"mongo_uri"`
	Database   string `mapstructure:"database"    yaml:"database"`
	Collection string `mapstructure:"collection"  yaml:"collection"`
}

// PolicyConfig controls the default traversal policy.
type PolicyConfig struct {
	Force        bool     `mapstructure:"force"         yaml:"force"`
	ExcludeTypes []string `mapstructure:"exclude_types" yaml:"exclude_types"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the management/metrics HTTP surface.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr"    yaml:"addr"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			LoopCount:      10,
			Name:           "ghcrawld",
			RequestTimeout: 30 * time.Second,
			EmptyQueueDelay: 2 * time.Second,
			MaxRetries:     5,
			RetryBaseDelay: 2 * time.Second,
			LockTTL:        60 * time.Second,
		},
		Fetcher: FetcherConfig{
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024,
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			RespectRobots:   true,
			UserAgent:       "ghcrawld/" + Version,
		},
		Queue: QueueConfig{
			Provider: "memory",
			Prefix:   "ghcrawl",
		},
		Lock: LockConfig{
			Provider: "memory",
			Prefix:   "ghcrawl:lock:",
		},
		Store: StoreConfig{
			Provider:   "memory",
			Database:   "ghcrawl",
			Collection: "documents",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}
