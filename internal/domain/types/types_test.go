package types_test

import (
	"encoding/json"
	"testing"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	types "github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given a ranked result", t, func() {
		r := model.ScoreResult{
			PlayerID:   "wr-17",
			Name:       "Sample Receiver",
			Team:       "DET",
			Position:   model.WR,
			Composite:  64.2,
			Calibrated: 66.9,
			Tier:       "T2",
			Confidence: model.ConfidenceHigh,
		}

		Convey("When flattened into an entry", func() {
			e := types.NewEntry(3, r)

			Convey("Then it carries the rank and display fields", func() {
				So(e.Rank, ShouldEqual, 3)
				So(e.PlayerID, ShouldEqual, "wr-17")
				So(e.Position, ShouldEqual, model.WR)
				So(e.Calibrated, ShouldEqual, 66.9)
				So(e.Tier, ShouldEqual, "T2")
				So(e.Confidence, ShouldEqual, model.ConfidenceHigh)
			})
		})
	})
}

func TestPeriodRequest(t *testing.T) {
	Convey("Given period requests", t, func() {
		Convey("A season request has no week", func() {
			p, err := types.PeriodRequest{Season: 2024}.Period()
			So(err, ShouldBeNil)
			So(p.IsSeason(), ShouldBeTrue)
		})

		Convey("A through-week request keeps the week", func() {
			p, err := types.PeriodRequest{Season: 2024, Week: 9}.Period()
			So(err, ShouldBeNil)
			So(p.ThroughWeek, ShouldEqual, 9)
		})

		Convey("An out-of-range week is rejected", func() {
			_, err := types.PeriodRequest{Season: 2024, Week: 40}.Period()
			So(err, ShouldNotBeNil)
		})

		Convey("A fit request decodes its embedded period", func() {
			var req types.FitRequest
			err := json.Unmarshal([]byte(`{"season":2023,"week":5,"position":"te"}`), &req)
			So(err, ShouldBeNil)
			So(req.Season, ShouldEqual, 2023)
			So(req.Week, ShouldEqual, 5)
			So(req.Position, ShouldEqual, "te")
		})
	})
}

func TestBatch(t *testing.T) {
	Convey("Only completed and failed batches are done", t, func() {
		So(types.Batch{Status: types.BatchQueued}.Done(), ShouldBeFalse)
		So(types.Batch{Status: types.BatchRunning}.Done(), ShouldBeFalse)
		So(types.Batch{Status: types.BatchCompleted}.Done(), ShouldBeTrue)
		So(types.Batch{Status: types.BatchFailed}.Done(), ShouldBeTrue)
	})

	Convey("Unset timestamps are omitted from JSON", t, func() {
		data, err := json.Marshal(types.Batch{ID: "b1", Status: types.BatchQueued})
		So(err, ShouldBeNil)
		So(string(data), ShouldNotContainSubstring, "started_at")
		So(string(data), ShouldNotContainSubstring, "finished_at")
	})
}
