package tier

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func ladder() Ladder {
	return Ladder{
		{Label: "T1", Cutoff: 85},
		{Label: "T2", Cutoff: 70},
		{Label: "T3", Cutoff: 55},
		{Label: "T4", Cutoff: 40},
		{Label: "T5", Cutoff: 0},
	}
}

func TestMap(t *testing.T) {
	Convey("Given a five tier ladder", t, func() {
		l := ladder()
		So(l.Validate(), ShouldBeNil)

		Convey("Scores land in the first tier they meet", func() {
			cases := []struct {
				score float64
				label string
				rank  int
			}{
				{100, "T1", 1}, {85, "T1", 1}, {84.99, "T2", 2}, {70, "T2", 2},
				{55, "T3", 3}, {41, "T4", 4}, {0, "T5", 5},
			}
			for _, c := range cases {
				label, rank := l.Map(c.score)
				So(label, ShouldEqual, c.label)
				So(rank, ShouldEqual, c.rank)
			}
		})

		Convey("Scores below every cutoff get the lowest tier", func() {
			label, rank := l.Map(-5)
			So(label, ShouldEqual, "T5")
			So(rank, ShouldEqual, 5)
			label, _ = l.Map(math.NaN())
			So(label, ShouldEqual, "T5")
		})

		Convey("Higher scores never get a worse tier", func() {
			prev := math.MaxInt
			for s := 0.0; s <= 100; s += 0.25 {
				_, rank := l.Map(s)
				So(rank, ShouldBeLessThanOrEqualTo, prev)
				prev = rank
			}
		})
	})

	Convey("An empty ladder maps to nothing", t, func() {
		label, rank := Ladder{}.Map(50)
		So(label, ShouldEqual, "")
		So(rank, ShouldEqual, 0)
	})
}

func TestValidate(t *testing.T) {
	Convey("Ladders must be strictly decreasing and labelled", t, func() {
		bad := []Ladder{
			{},
			{{Label: "T1", Cutoff: 50}, {Label: "T2", Cutoff: 50}},
			{{Label: "T1", Cutoff: 50}, {Label: "T2", Cutoff: 60}},
			{{Label: "", Cutoff: 50}},
			{{Label: "T1", Cutoff: 50}, {Label: "T1", Cutoff: 40}},
			{{Label: "T1", Cutoff: math.NaN()}},
		}
		for _, l := range bad {
			So(errors.Is(l.Validate(), ErrInvalidLadder), ShouldBeTrue)
		}
	})
}
