package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/mq/queue"
	worker "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/mq/worker"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type recordingRunner struct {
	mu    sync.Mutex
	ran   []string
	fail  map[string]error
	delay time.Duration
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{fail: map[string]error{}}
}

func (r *recordingRunner) RunJob(ctx context.Context, j queue.Job) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, j.BatchID)
	return r.fail[j.BatchID]
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ran)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func job(id string) queue.Job {
	return queue.Job{BatchID: id, Period: model.SeasonPeriod(2024), EnqueuedAt: time.Now()}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		runner := newRecordingRunner()
		w := worker.NewInMemoryWorker(q, runner, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs arrive", func() {
			q.jobs <- job("b1")
			q.jobs <- job("b2")

			convey.Convey("Then each job runs once in order", func() {
				convey.So(waitFor(func() bool { return runner.count() == 2 }), convey.ShouldBeTrue)
				convey.So(runner.ran, convey.ShouldResemble, []string{"b1", "b2"})
			})
		})

		convey.Convey("When a job fails", func() {
			runner.fail["bad"] = errors.New("boom")
			q.jobs <- job("bad")
			q.jobs <- job("good")

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(func() bool { return runner.count() == 2 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker with a job timeout", t, func() {
		q := newMockQueue()
		runner := newRecordingRunner()
		runner.delay = time.Second
		w := worker.NewInMemoryWorker(q, runner, worker.WithJobTimeout(20*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		q.jobs <- job("slow")
		q.jobs <- job("next")

		convey.Convey("Then a slow job is cut off and the next one starts", func() {
			start := time.Now()
			_ = q.Close()
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			convey.So(time.Since(start), convey.ShouldBeLessThan, 900*time.Millisecond)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(32))
		runner := newRecordingRunner()
		pool := worker.NewPool(3, q, runner)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		convey.Convey("When jobs are queued and the pool shuts down", func() {
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				convey.So(q.Enqueue(ctx, job(id)), convey.ShouldBeNil)
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every queued job has run", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(runner.count(), convey.ShouldEqual, 5)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), worker.RunnerFunc(func(context.Context, queue.Job) error { return nil }))

		convey.Convey("Then the default size is used", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
