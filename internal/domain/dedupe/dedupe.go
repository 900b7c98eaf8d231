// Package dedupe tracks in-flight work keys so the same batch is not queued
// twice while a run for it is pending.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Deduper records in-flight keys.
type Deduper interface {
	// SeenAndRecord atomically checks whether key is in flight and records
	// it if not. It returns true when the key was already in flight.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases a key once its work finishes or is abandoned.
	Unrecord(ctx context.Context, key string)

	Size() int64
}

// inMemoryDeduper keeps keys in a map with their record time. Entries older
// than ttl count as released. When maxSize is reached the oldest entry is
// evicted.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 1024,
		ttl:     30 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]time.Time)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if at, ok := d.seen[key]; ok {
		if d.ttl <= 0 || now.Sub(at) < d.ttl {
			return true
		}
		// expired: refresh in place
		d.seen[key] = now
		return false
	}

	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = now
	d.size.Store(int64(len(d.seen)))
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	d.size.Store(int64(len(d.seen)))
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, at := range d.seen {
		if !found || at.Before(oldestAt) || (at.Equal(oldestAt) && k < oldestKey) {
			oldestKey, oldestAt, found = k, at, true
		}
	}
	if found {
		delete(d.seen, oldestKey)
	}
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
