package repository

import (
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	logger   logger.Logger
	maxConns int32
	minConns int32
}

func defaultOptions() options {
	return options{
		logger:   logger.Get().Named("repository"),
		maxConns: 10,
		minConns: 2,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPoolSize tunes the PostgreSQL connection pool.
func WithPoolSize(maxConns, minConns int32) Option {
	return func(o *options) {
		if maxConns > 0 {
			o.maxConns = maxConns
		}
		if minConns > 0 {
			o.minConns = minConns
		}
	}
}
