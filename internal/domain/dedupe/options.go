package dedupe

import "time"

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of tracked keys. Zero or negative means
// unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithTTL releases keys automatically after ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(d *inMemoryDeduper) {
		d.ttl = ttl
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(d *inMemoryDeduper) {
		if now != nil {
			d.now = now
		}
	}
}
