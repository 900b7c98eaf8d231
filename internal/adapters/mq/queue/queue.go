// Package queue holds pending batch jobs between the trigger surfaces and
// the worker pool.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
)

const defaultQueueCapacity = 64

// Job asks for one period to be recomputed.
type Job struct {
	BatchID    string
	Period     model.Period
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job without blocking. It returns ErrFull when the queue
	// is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel that receives jobs. The channel is closed
	// when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len() int

	// Cap returns the configured capacity.
	Cap() int

	// Close stops accepting jobs.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateQueue(0, q.capacity)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.jobs <- j:
		metrics.UpdateQueue(len(q.jobs), q.capacity)
		return nil
	default:
		metrics.RecordQueueRejected()
		return ErrFull
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.UpdateQueue(len(q.jobs), q.capacity)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int { return len(q.jobs) }

// Cap implements Queue.
func (q *InMemoryQueue) Cap() int { return q.capacity }

// Close implements Queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
