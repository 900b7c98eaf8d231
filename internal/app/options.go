package service

import (
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued batches.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many in-flight batch keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDedupeTTL bounds how long a batch key suppresses new triggers, in
// case a worker dies without releasing it.
func WithDedupeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.dedupeTTL = ttl
		}
	}
}

// WithBatchConcurrency caps players scored in parallel within a batch.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithMaxLeaderboardLimit caps leaderboard page size.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLeaderboard = n
		}
	}
}

// WithRetry sets the retry policy for period replaces.
func WithRetry(cfg RetryConfig) Option {
	return func(s *Service) {
		s.retry = cfg
	}
}

// WithBatchHistory sets how many finished batches stay queryable.
func WithBatchHistory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batches.limit = n
		}
	}
}

// WithClock replaces time.Now for batch timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
