// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) builds a Config with defaults; Load layers file and env on top.
// - Scoring profiles are loaded separately by LoadProfile.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Driver is one of memory, sqlite, postgres.
	Driver string `koanf:"driver"`
	// DSN is the sqlite file name or the postgres connection string.
	DSN string `koanf:"dsn"`
	// StatsDSN is a sqlite file for raw statistics when Driver is postgres.
	// Empty keeps statistics in memory. The sqlite driver shares DSN.
	StatsDSN string `koanf:"stats_dsn"`
	// MaxConns and MinConns size the postgres pool.
	MaxConns int32 `koanf:"max_conns"`
	MinConns int32 `koanf:"min_conns"`
}

// RetryConfig bounds retries of whole-period writes.
type RetryConfig struct {
	MaxAttempts    int           `koanf:"max_attempts"`
	InitialBackoff time.Duration `koanf:"initial_backoff"`
	MaxBackoff     time.Duration `koanf:"max_backoff"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory batch job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// BatchConcurrency caps players scored in parallel within one batch.
	BatchConcurrency int `koanf:"batch_concurrency"`

	// DedupeSize and DedupeTTL bound in-flight batch suppression.
	DedupeSize int           `koanf:"dedupe_size"`
	DedupeTTL  time.Duration `koanf:"dedupe_ttl"`

	// MaxLeaderboardLimit caps GET /v1/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// BatchHistory is how many finished batches stay queryable.
	BatchHistory int `koanf:"batch_history"`

	// MaxBodyBytes caps HTTP request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// BatchRatePerMinute throttles POST /v1/batches; zero disables it.
	BatchRatePerMinute int `koanf:"batch_rate_per_minute"`

	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `koanf:"cors_origins"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// ProfilePath names a YAML scoring profile; empty uses the embedded one.
	ProfilePath string `koanf:"profile_path"`

	Store StoreConfig `koanf:"store"`
	Retry RetryConfig `koanf:"retry"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           64,
		WorkerCount:         2,
		BatchConcurrency:    runtime.NumCPU() * 2,
		DedupeSize:          1024,
		DedupeTTL:           30 * time.Minute,
		MaxLeaderboardLimit: 500,
		BatchHistory:        256,
		MaxBodyBytes:        8 << 20,
		BatchRatePerMinute:  30,
		CORSOrigins:         []string{"*"},
		ReadTimeout:         10 * time.Second,
		WriteTimeout:        30 * time.Second,
		IdleTimeout:         60 * time.Second,
		ShutdownTimeout:     30 * time.Second,
		Store: StoreConfig{
			Driver:   DriverMemory,
			MaxConns: 10,
			MinConns: 2,
		},
		Retry: RetryConfig{
			MaxAttempts:    5,
			InitialBackoff: 50 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
		},
	}
}

// Validate rejects unusable settings.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.BatchConcurrency <= 0:
		return fmt.Errorf("%w: batch_concurrency must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.DedupeTTL < 0:
		return fmt.Errorf("%w: dedupe_ttl must not be negative", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.BatchHistory <= 0:
		return fmt.Errorf("%w: batch_history must be positive", ErrInvalidConfig)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case c.BatchRatePerMinute < 0:
		return fmt.Errorf("%w: batch_rate_per_minute must not be negative", ErrInvalidConfig)
	case c.Retry.MaxAttempts <= 0:
		return fmt.Errorf("%w: retry.max_attempts must be positive", ErrInvalidConfig)
	case c.Retry.InitialBackoff < 0 || c.Retry.MaxBackoff < c.Retry.InitialBackoff:
		return fmt.Errorf("%w: retry backoff out of range", ErrInvalidConfig)
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for %s", ErrInvalidConfig, c.Store.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalidConfig, c.Store.Driver)
	}
	if c.Store.MaxConns <= 0 || c.Store.MinConns < 0 || c.Store.MinConns > c.Store.MaxConns {
		return fmt.Errorf("%w: store pool bounds out of range", ErrInvalidConfig)
	}
	return nil
}
