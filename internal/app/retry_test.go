package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/repository"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRetry(t *testing.T) {
	Convey("Given a fast retry policy", t, func() {
		ctx := context.Background()
		cfg := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

		Convey("Success on the first attempt runs once", func() {
			calls := 0
			err := retry(ctx, cfg, func(context.Context) error { calls++; return nil })
			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 1)
		})

		Convey("Stale state is retried until it clears", func() {
			calls, notified := 0, 0
			cfg.OnRetry = func(int, error) { notified++ }
			err := retry(ctx, cfg, func(context.Context) error {
				calls++
				if calls < 3 {
					return repository.ErrStaleState
				}
				return nil
			})
			So(err, ShouldBeNil)
			So(calls, ShouldEqual, 3)
			So(notified, ShouldEqual, 2)
		})

		Convey("Other errors are returned at once", func() {
			boom := errors.New("boom")
			calls := 0
			err := retry(ctx, cfg, func(context.Context) error { calls++; return boom })
			So(err, ShouldEqual, boom)
			So(calls, ShouldEqual, 1)
		})

		Convey("The last error is returned when attempts run out", func() {
			calls := 0
			err := retry(ctx, cfg, func(context.Context) error { calls++; return repository.ErrStaleState })
			So(errors.Is(err, repository.ErrStaleState), ShouldBeTrue)
			So(calls, ShouldEqual, 3)
		})

		Convey("A cancelled context stops retrying", func() {
			cctx, cancel := context.WithCancel(ctx)
			calls := 0
			err := retry(cctx, cfg, func(context.Context) error {
				calls++
				cancel()
				return repository.ErrStaleState
			})
			So(errors.Is(err, repository.ErrStaleState), ShouldBeTrue)
			So(calls, ShouldEqual, 1)
		})
	})

	Convey("Backoff grows and is capped", t, func() {
		cfg := RetryConfig{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond, Multiplier: 2}.withDefaults()
		cfg.JitterFraction = 0
		So(backoff(0, cfg), ShouldEqual, 10*time.Millisecond)
		So(backoff(1, cfg), ShouldEqual, 20*time.Millisecond)
		So(backoff(5, cfg), ShouldEqual, 50*time.Millisecond)

		cfg.JitterFraction = 0.5
		for range 50 {
			d := backoff(1, cfg)
			So(d, ShouldBeBetweenOrEqual, 10*time.Millisecond, 30*time.Millisecond)
		}
	})
}

func TestBatchRegistry(t *testing.T) {
	Convey("Given a registry holding two batches", t, func() {
		r := newBatchRegistry(2)
		r.add(types.Batch{ID: "a", Status: types.BatchQueued})
		r.add(types.Batch{ID: "b", Status: types.BatchQueued})

		Convey("Updates are visible through get", func() {
			r.update("a", func(b *types.Batch) { b.Status = types.BatchRunning; b.Processed = 3 })
			b, ok := r.get("a")
			So(ok, ShouldBeTrue)
			So(b.Status, ShouldEqual, types.BatchRunning)
			So(b.Processed, ShouldEqual, 3)
			So(r.counts(), ShouldResemble, map[string]int{types.BatchRunning: 1, types.BatchQueued: 1})
		})

		Convey("Unfinished batches are never evicted", func() {
			r.add(types.Batch{ID: "c", Status: types.BatchQueued})
			for _, id := range []string{"a", "b", "c"} {
				_, ok := r.get(id)
				So(ok, ShouldBeTrue)
			}

			Convey("Finished batches beyond the limit are, oldest first", func() {
				r.update("a", func(b *types.Batch) { b.Status = types.BatchCompleted })
				_, ok := r.get("a")
				So(ok, ShouldBeFalse)
				_, ok = r.get("b")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("Removed batches are gone", func() {
			r.remove("b")
			_, ok := r.get("b")
			So(ok, ShouldBeFalse)
			So(r.counts(), ShouldResemble, map[string]int{types.BatchQueued: 1})
		})
	})
}
