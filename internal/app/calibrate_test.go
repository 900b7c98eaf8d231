package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/adapters/repository"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/config"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/enrich"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/scoring"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/synthetic"
	. "github.com/smartystreets/goconvey/convey"
)

func importTruth(ctx context.Context, f fixture, p model.Period, pos model.Position, truth synthetic.Truth) []model.ReferenceBenchmarkRow {
	eng := scoring.NewEngine(config.DefaultProfile())
	rows, err := f.league.Benchmarks(ctx, f.src, eng, p, pos, truth)
	So(err, ShouldBeNil)
	res, err := f.svc.ImportBenchmarks(ctx, p, rows)
	So(err, ShouldBeNil)
	So(res.Imported, ShouldEqual, len(rows))
	So(res.Period, ShouldEqual, p.Key())
	return rows
}

func TestService_FitCalibration(t *testing.T) {
	Convey("Given a service over a synthetic league", t, func() {
		f := newFixture(nil)
		ctx := context.Background()
		p := model.SeasonPeriod(season)

		Convey("A regression fit recovers a noiseless relation", func() {
			truth := synthetic.Truth{
				Intercept: 2,
				Coefficients: map[string]float64{
					enrich.KeySnapShare:       8,
					enrich.KeyOpponentQuality: 0.05,
				},
			}
			importTruth(ctx, f, p, model.WR, truth)

			m, err := f.svc.FitCalibration(ctx, p, model.WR)
			So(err, ShouldBeNil)
			So(m.Strategy, ShouldEqual, calibration.StrategyRegression)
			So(m.ReferenceRows, ShouldBeGreaterThanOrEqualTo, 20)
			So(m.Report, ShouldNotBeNil)
			So(m.Report.R2, ShouldAlmostEqual, 1, 1e-6)

			coef := map[string]float64{}
			for _, term := range m.Terms {
				coef[term.Metric] = term.Coefficient
			}
			So(coef[enrich.KeySnapShare], ShouldAlmostEqual, 8, 1e-6)
			So(coef[enrich.KeyOpponentQuality], ShouldAlmostEqual, 0.05, 1e-6)

			stored, err := f.svc.CalibrationModel(ctx, p, model.WR)
			So(err, ShouldBeNil)
			So(stored.Terms, ShouldResemble, m.Terms)

			Convey("And later scores for the position are calibrated", func() {
				id := f.league.PlayersAt(model.WR)[0].PlayerID
				r, err := f.svc.ScoreOne(ctx, id, p, true)
				So(err, ShouldBeNil)
				So(r.IsCalibrated, ShouldBeTrue)
				So(r.Calibrated, ShouldNotEqual, r.Composite)

				te := f.league.PlayersAt(model.TE)[0].PlayerID
				r, err = f.svc.ScoreOne(ctx, te, p, true)
				So(err, ShouldBeNil)
				So(r.IsCalibrated, ShouldBeFalse)
				So(r.Calibrated, ShouldEqual, r.Composite)
			})
		})

		Convey("A deviation strategy keeps its configured coefficients", func() {
			importTruth(ctx, f, p, model.RB, synthetic.Truth{})
			m, err := f.svc.FitCalibration(ctx, p, model.RB)
			So(err, ShouldBeNil)
			So(m.Strategy, ShouldEqual, calibration.StrategyDeviation)
			So(m.Report, ShouldBeNil)
			So(m.Intercept, ShouldEqual, 0)
			So(m.Terms, ShouldResemble, config.DefaultProfile().Positions[model.RB].Calibration.Terms)
			So(m.Baselines, ShouldContainKey, enrich.KeySnapShare)
		})

		Convey("Too few reference rows leaves the position uncalibrated", func() {
			rows := importTruth(ctx, f, p, model.TE, synthetic.Truth{Intercept: 1})
			So(len(rows), ShouldBeLessThan, 20)

			_, err := f.svc.FitCalibration(ctx, p, model.TE)
			So(errors.Is(err, calibration.ErrInsufficientReferenceData), ShouldBeTrue)

			_, err = f.svc.CalibrationModel(ctx, p, model.TE)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("A failed refit drops the earlier model", func() {
			truth := synthetic.Truth{Intercept: 2, Coefficients: map[string]float64{enrich.KeySnapShare: 8}}
			rows := importTruth(ctx, f, p, model.WR, truth)
			_, err := f.svc.FitCalibration(ctx, p, model.WR)
			So(err, ShouldBeNil)

			id := f.league.PlayersAt(model.WR)[0].PlayerID
			r, err := f.svc.ScoreOne(ctx, id, p, false)
			So(err, ShouldBeNil)
			So(r.IsCalibrated, ShouldBeTrue)

			_, err = f.svc.ImportBenchmarks(ctx, p, rows[:3])
			So(err, ShouldBeNil)
			_, err = f.svc.FitCalibration(ctx, p, model.WR)
			So(errors.Is(err, calibration.ErrInsufficientReferenceData), ShouldBeTrue)

			_, err = f.svc.CalibrationModel(ctx, p, model.WR)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			r, err = f.svc.ScoreOne(ctx, id, p, false)
			So(err, ShouldBeNil)
			So(r.IsCalibrated, ShouldBeFalse)
			So(r.Confidence, ShouldEqual, model.ConfidenceLow)
			So(r.Calibrated, ShouldEqual, r.Composite)
		})

		Convey("A successful fit refreshes cached scores of the position", func() {
			wr := f.league.PlayersAt(model.WR)[0].PlayerID
			te := f.league.PlayersAt(model.TE)[0].PlayerID
			before, err := f.svc.ScoreOne(ctx, wr, p, false)
			So(err, ShouldBeNil)
			So(before.IsCalibrated, ShouldBeFalse)
			teBefore, err := f.svc.ScoreOne(ctx, te, p, false)
			So(err, ShouldBeNil)

			truth := synthetic.Truth{Intercept: 2, Coefficients: map[string]float64{enrich.KeySnapShare: 8}}
			importTruth(ctx, f, p, model.WR, truth)
			_, err = f.svc.FitCalibration(ctx, p, model.WR)
			So(err, ShouldBeNil)

			cached, err := f.store.Get(ctx, model.ResultKey{PlayerID: wr, Period: p})
			So(err, ShouldBeNil)
			So(cached.IsCalibrated, ShouldBeTrue)

			forced, err := f.svc.ScoreOne(ctx, wr, p, true)
			So(err, ShouldBeNil)
			So(cached, ShouldResemble, forced)

			teAfter, err := f.store.Get(ctx, model.ResultKey{PlayerID: te, Period: p})
			So(err, ShouldBeNil)
			So(teAfter, ShouldResemble, teBefore)
		})

		Convey("Fitting without benchmarks is insufficient data", func() {
			_, err := f.svc.FitCalibration(ctx, model.ThroughWeekPeriod(season, 5), model.WR)
			So(errors.Is(err, calibration.ErrInsufficientReferenceData), ShouldBeTrue)
		})

		Convey("Benchmarks from another period are rejected", func() {
			row := model.ReferenceBenchmarkRow{
				PlayerID: "x", Team: "T01", Position: model.WR, Season: season - 1,
				RawValue: 50, AdjustedValue: 55, SampleSize: 100,
			}
			_, err := f.svc.ImportBenchmarks(ctx, p, []model.ReferenceBenchmarkRow{row})
			So(errors.Is(err, repository.ErrInvalidResult), ShouldBeTrue)
		})
	})
}
