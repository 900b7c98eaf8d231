package api

import (
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"golang.org/x/time/rate"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithBatchRatePerMinute throttles batch triggers. Zero disables the limit.
func WithBatchRatePerMinute(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.batchLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
		}
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
