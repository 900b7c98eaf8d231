package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/repository"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/statsource"
	service "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/app"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/scoring"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/synthetic"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const season = 2024

type fixture struct {
	svc    *service.Service
	league *synthetic.League
	src    *statsource.MemorySource
	store  repository.Store
}

// newFixture loads a synthetic league into memory stores and builds a
// service over them. The service is not started.
func newFixture(store repository.Store, opts ...service.Option) fixture {
	ctx := context.Background()
	l := synthetic.Generate(synthetic.Config{Season: season, Weeks: 10, Teams: 12, Seed: 11})
	src := statsource.NewMemorySource()
	if err := l.Load(ctx, src); err != nil {
		panic(err)
	}
	if store == nil {
		store = repository.NewMemoryStore()
	}
	return fixture{
		svc:    service.New(store, src, config.DefaultProfile(), opts...),
		league: l,
		src:    src,
		store:  store,
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		f := newFixture(nil, service.WithWorkerCount(3), service.WithQueueSize(8))
		defer f.svc.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("It reports the active profile", func() {
			So(f.svc.Profile().Version, ShouldEqual, config.DefaultProfile().Version)
		})

		Convey("Before Start it is not started and rejects batches", func() {
			stats := f.svc.GetStats(ctx)
			So(stats["started"], ShouldEqual, false)
			_, err := f.svc.TriggerBatch(ctx, model.SeasonPeriod(season))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When started", func() {
			So(f.svc.Start(ctx), ShouldBeNil)
			So(f.svc.Start(ctx), ShouldBeNil)

			stats := f.svc.GetStats(ctx)
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueLength"], ShouldEqual, 0)
			So(stats["storedResults"], ShouldEqual, 0)

			Convey("Then Stop marks it stopped and is idempotent", func() {
				f.svc.Stop()
				f.svc.Stop()
				So(f.svc.GetStats(ctx)["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_ScoreOne(t *testing.T) {
	Convey("Given a service over a synthetic league", t, func() {
		f := newFixture(nil)
		ctx := context.Background()
		p := model.SeasonPeriod(season)
		id := f.league.PlayersAt(model.WR)[0].PlayerID

		Convey("A first request computes and caches the score", func() {
			r, err := f.svc.ScoreOne(ctx, id, p, false)
			So(err, ShouldBeNil)
			So(r.PlayerID, ShouldEqual, id)
			So(r.Position, ShouldEqual, model.WR)
			So(r.Calibrated, ShouldBeBetweenOrEqual, 0, 100)
			So(r.Tier, ShouldNotBeEmpty)
			So(r.IsCalibrated, ShouldBeFalse)
			So(r.Confidence, ShouldEqual, model.ConfidenceLow)

			cached, err := f.store.Get(ctx, model.ResultKey{PlayerID: id, Period: p})
			So(err, ShouldBeNil)
			So(cached, ShouldResemble, r)
		})

		Convey("A cached result is served until forced", func() {
			r, err := f.svc.ScoreOne(ctx, id, p, false)
			So(err, ShouldBeNil)

			stale := r
			stale.Calibrated = 1
			So(f.store.Put(ctx, stale), ShouldBeNil)

			got, err := f.svc.ScoreOne(ctx, id, p, false)
			So(err, ShouldBeNil)
			So(got.Calibrated, ShouldEqual, 1)

			forced, err := f.svc.ScoreOne(ctx, id, p, true)
			So(err, ShouldBeNil)
			So(forced, ShouldResemble, r)

			again, err := f.svc.ScoreOne(ctx, id, p, false)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, r)
		})

		Convey("A through-week period scores only the weeks it covers", func() {
			full, err := f.svc.ScoreOne(ctx, id, p, false)
			So(err, ShouldBeNil)
			early, err := f.svc.ScoreOne(ctx, id, model.ThroughWeekPeriod(season, 3), false)
			So(err, ShouldBeNil)
			So(early.ThroughWeek, ShouldEqual, 3)
			So(early.ActiveWeeks, ShouldBeLessThanOrEqualTo, 3)
			So(early.SampleSize, ShouldBeLessThanOrEqualTo, full.SampleSize)
		})

		Convey("Unknown players and empty seasons are ErrNoData", func() {
			_, err := f.svc.ScoreOne(ctx, "nobody", p, false)
			So(errors.Is(err, scoring.ErrNoData), ShouldBeTrue)

			_, err = f.svc.ScoreOne(ctx, id, model.SeasonPeriod(season-1), false)
			So(errors.Is(err, scoring.ErrNoData), ShouldBeTrue)

			_, err = f.store.Get(ctx, model.ResultKey{PlayerID: "nobody", Period: p})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Malformed requests are rejected", func() {
			_, err := f.svc.ScoreOne(ctx, "", p, false)
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)

			_, err = f.svc.ScoreOne(ctx, id, model.Period{Season: 12}, false)
			So(errors.Is(err, model.ErrInvalidPeriod), ShouldBeTrue)
		})
	})
}

func TestService_IngestStats(t *testing.T) {
	Convey("Given an empty service", t, func() {
		ctx := context.Background()
		src := statsource.NewMemorySource()
		svc := service.New(repository.NewMemoryStore(), src, config.DefaultProfile())
		l := synthetic.Generate(synthetic.Config{Season: season, Weeks: 4, Teams: 4, Seed: 5})

		Convey("Ingested rows become scorable", func() {
			So(svc.IngestStats(ctx, l.Rows, l.TeamWeeks), ShouldBeNil)
			players, err := src.Players(ctx, season)
			So(err, ShouldBeNil)
			So(len(players), ShouldEqual, len(l.Players))

			r, err := svc.ScoreOne(ctx, l.Players[0].PlayerID, model.SeasonPeriod(season), false)
			So(err, ShouldBeNil)
			So(r.PlayerID, ShouldEqual, l.Players[0].PlayerID)
		})

		Convey("Re-ingesting identical rows is accepted", func() {
			So(svc.IngestStats(ctx, l.Rows, l.TeamWeeks), ShouldBeNil)
			So(svc.IngestStats(ctx, l.Rows, l.TeamWeeks), ShouldBeNil)
		})

		Convey("A conflicting row is rejected", func() {
			So(svc.IngestStats(ctx, l.Rows, nil), ShouldBeNil)
			changed := l.Rows[0]
			changed.Stats = map[string]float64{model.StatSnaps: 999}
			err := svc.IngestStats(ctx, []model.RawStatRow{changed}, nil)
			So(errors.Is(err, statsource.ErrRowConflict), ShouldBeTrue)
		})
	})
}
