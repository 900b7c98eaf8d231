package profile

import (
	"errors"
	"testing"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/composite"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/pillar"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/prior"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func sample() *Profile {
	return &Profile{
		Version: "test-1",
		Priors:  prior.Default(),
		Positions: map[model.Position]Position{
			model.WR: {
				Pillars: []pillar.Config{
					{Name: "volume", Metrics: []pillar.MetricSpec{{Key: "targets", Transform: pillar.TransformScaled, Min: 0, Max: 150, Weight: 1}}},
					{Name: "context", Metrics: []pillar.MetricSpec{{Key: "snap_share", Transform: pillar.TransformPercentile, Floor: 20, Weight: 1}}},
				},
				Weights:     composite.WeightProfile{"volume": 3, "context": 1},
				Tiers:       tier.Ladder{{Label: "T1", Cutoff: 80}, {Label: "T2", Cutoff: 0}},
				Calibration: calibration.StrategyConfig{Strategy: calibration.StrategyNone},
			},
		},
	}
}

func TestProfile(t *testing.T) {
	Convey("Given a valid profile", t, func() {
		p := sample()
		So(p.Validate(), ShouldBeNil)

		Convey("Positions resolve", func() {
			wr, err := p.For(model.WR)
			So(err, ShouldBeNil)
			So(len(wr.Pillars), ShouldEqual, 2)
			_, err = p.For(model.QB)
			So(errors.Is(err, ErrUnknownPosition), ShouldBeTrue)
			So(p.PositionList(), ShouldResemble, []model.Position{model.WR})
		})

		Convey("Broken sections are rejected", func() {
			mutations := []func(*Profile){
				func(p *Profile) { p.Version = "" },
				func(p *Profile) { p.Positions = nil },
				func(p *Profile) { p.Priors.MinActiveWeeks = 0 },
				func(p *Profile) { p.Positions["K"] = p.Positions[model.WR] },
				func(p *Profile) {
					wr := p.Positions[model.WR]
					wr.Weights = composite.WeightProfile{"volume": -1}
					p.Positions[model.WR] = wr
				},
				func(p *Profile) {
					wr := p.Positions[model.WR]
					wr.Weights = composite.WeightProfile{"speed": 1}
					p.Positions[model.WR] = wr
				},
				func(p *Profile) {
					wr := p.Positions[model.WR]
					wr.Tiers = tier.Ladder{{Label: "T1", Cutoff: 10}, {Label: "T2", Cutoff: 20}}
					p.Positions[model.WR] = wr
				},
				func(p *Profile) {
					wr := p.Positions[model.WR]
					wr.Pillars = append(wr.Pillars, wr.Pillars[0])
					p.Positions[model.WR] = wr
				},
				func(p *Profile) {
					wr := p.Positions[model.WR]
					wr.Calibration = calibration.StrategyConfig{Strategy: calibration.StrategyRegression}
					p.Positions[model.WR] = wr
				},
			}
			for _, mutate := range mutations {
				bad := sample()
				mutate(bad)
				So(errors.Is(bad.Validate(), ErrInvalidProfile), ShouldBeTrue)
			}
		})
	})
}
