package composite

import (
	"errors"
	"math"
	"testing"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func pillars(v, e, s, c float64) []model.PillarScore {
	return []model.PillarScore{
		{Name: "volume", Score: v},
		{Name: "efficiency", Score: e},
		{Name: "stability", Score: s},
		{Name: "context", Score: c},
	}
}

func TestCombine(t *testing.T) {
	Convey("Given a wide receiver weight profile", t, func() {
		w := WeightProfile{"volume": 40, "efficiency": 35, "stability": 15, "context": 10}
		So(w.Validate(), ShouldBeNil)
		So(w.Total(), ShouldEqual, 100)

		Convey("The composite is the normalized weighted mean", func() {
			// (40*80 + 35*60 + 15*50 + 10*70) / 100
			So(Combine(w, pillars(80, 60, 50, 70)), ShouldEqual, 67.5)
		})

		Convey("Scaling every weight leaves the composite unchanged", func() {
			scaled := WeightProfile{"volume": 0.40, "efficiency": 0.35, "stability": 0.15, "context": 0.10}
			So(Combine(scaled, pillars(80, 60, 50, 70)), ShouldAlmostEqual, 67.5, 1e-9)
		})

		Convey("Repeated calls are identical", func() {
			in := pillars(91.3, 12.7, 55.5, 0.1)
			first := Combine(w, in)
			for i := 0; i < 10; i++ {
				So(math.Float64bits(Combine(w, in)), ShouldEqual, math.Float64bits(first))
			}
		})

		Convey("Pillars missing from the profile are ignored", func() {
			in := append(pillars(80, 60, 50, 70), model.PillarScore{Name: "bonus", Score: 100})
			So(Combine(w, in), ShouldEqual, 67.5)
		})

		Convey("Composite stays in bounds", func() {
			So(Combine(w, pillars(100, 100, 100, 100)), ShouldEqual, 100)
			So(Combine(w, pillars(0, 0, 0, 0)), ShouldEqual, 0)
		})
	})

	Convey("Given a profile without weight", t, func() {
		Convey("The composite is neutral", func() {
			So(Combine(WeightProfile{}, pillars(80, 60, 50, 70)), ShouldEqual, Neutral)
			So(Combine(WeightProfile{"volume": 0}, pillars(80, 60, 50, 70)), ShouldEqual, Neutral)
			So(Combine(nil, nil), ShouldEqual, Neutral)
		})
	})

	Convey("Negative weights are rejected", t, func() {
		err := WeightProfile{"volume": -1}.Validate()
		So(errors.Is(err, ErrInvalidWeights), ShouldBeTrue)
		So(WeightProfile{"volume": math.Inf(1)}.Validate(), ShouldNotBeNil)
	})
}
