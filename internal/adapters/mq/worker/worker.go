// Package worker runs queued batch jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/mq/queue"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Runner executes one batch job. Failures are recorded by the runner; the
// returned error is only logged here.
type Runner interface {
	RunJob(ctx context.Context, j queue.Job) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, j queue.Job) error

// RunJob implements Runner.
func (f RunnerFunc) RunJob(ctx context.Context, j queue.Job) error { return f(ctx, j) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	runner     Runner
	name       string
	jobTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}
	stopOnce atomic.Bool

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		runner:   runner,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown implements Worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	if w.stopOnce.CompareAndSwap(false, true) {
		close(w.shutdown)
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) {
	if w.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.jobTimeout)
		defer cancel()
	}
	ctx = logger.WithFields(ctx,
		logger.String("batch_id", j.BatchID),
		logger.String("period", j.Period.Key()))

	w.logger.Debug(ctx, "batch picked up", logger.Duration("waited", time.Since(j.EnqueuedAt)))
	if err := w.runner.RunJob(ctx, j); err != nil {
		w.logger.Error(ctx, "batch failed", logger.Error(err))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A non-positive count uses the default.
func NewPool(workerCount int, q Queue, runner Runner, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, runner, wopts...)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			w.stop()
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
