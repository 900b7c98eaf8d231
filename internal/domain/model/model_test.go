package model_test

import (
	"errors"
	"testing"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPosition(t *testing.T) {
	convey.Convey("ParsePosition normalizes case and whitespace", t, func() {
		p, err := model.ParsePosition(" wr ")
		convey.So(err, convey.ShouldBeNil)
		convey.So(p, convey.ShouldEqual, model.WR)

		_, err = model.ParsePosition("K")
		convey.So(errors.Is(err, model.ErrUnknownPosition), convey.ShouldBeTrue)
	})
}

func TestPeriod(t *testing.T) {
	convey.Convey("Given periods", t, func() {
		season := model.SeasonPeriod(2024)
		week := model.ThroughWeekPeriod(2024, 7)

		convey.Convey("Keys round trip", func() {
			convey.So(season.Key(), convey.ShouldEqual, "2024")
			convey.So(week.Key(), convey.ShouldEqual, "2024-w07")

			parsed, err := model.ParsePeriodKey("2024-w07")
			convey.So(err, convey.ShouldBeNil)
			convey.So(parsed, convey.ShouldResemble, week)

			parsed, err = model.ParsePeriodKey("2024")
			convey.So(err, convey.ShouldBeNil)
			convey.So(parsed.IsSeason(), convey.ShouldBeTrue)
		})

		convey.Convey("Includes covers the week prefix", func() {
			convey.So(week.Includes(1), convey.ShouldBeTrue)
			convey.So(week.Includes(7), convey.ShouldBeTrue)
			convey.So(week.Includes(8), convey.ShouldBeFalse)
			convey.So(week.Includes(0), convey.ShouldBeFalse)
			convey.So(season.Includes(18), convey.ShouldBeTrue)
		})

		convey.Convey("Validate rejects out of range weeks", func() {
			err := model.ThroughWeekPeriod(2024, 30).Validate()
			convey.So(errors.Is(err, model.ErrInvalidPeriod), convey.ShouldBeTrue)
			_, err = model.ParsePeriodKey("abc")
			convey.So(errors.Is(err, model.ErrInvalidPeriod), convey.ShouldBeTrue)
		})
	})
}

func TestRawStatRow(t *testing.T) {
	convey.Convey("A row is active when any stat is positive", t, func() {
		convey.So(model.RawStatRow{Stats: map[string]float64{"snaps": 0}}.Active(), convey.ShouldBeFalse)
		convey.So(model.RawStatRow{Stats: map[string]float64{"snaps": 0, "targets": 2}}.Active(), convey.ShouldBeTrue)
		convey.So(model.RawStatRow{Week: 0}.IsSeasonTotal(), convey.ShouldBeTrue)
	})
}

func TestScoreResult(t *testing.T) {
	convey.Convey("Pillar looks up sub-scores by name", t, func() {
		r := model.ScoreResult{PlayerID: "p1", Season: 2024, ThroughWeek: 3,
			Pillars: []model.PillarScore{{Name: "volume", Score: 61}}}
		v, ok := r.Pillar("volume")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(v, convey.ShouldEqual, 61)
		_, ok = r.Pillar("context")
		convey.So(ok, convey.ShouldBeFalse)
		convey.So(r.Key(), convey.ShouldResemble, model.ResultKey{PlayerID: "p1", Period: model.ThroughWeekPeriod(2024, 3)})
	})
}
