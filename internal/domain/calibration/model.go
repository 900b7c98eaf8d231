package calibration

import (
	"fmt"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/metric"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/pillar"
)

// Model is an applied calibration for one position and period.
type Model struct {
	Position      model.Position `json:"position"`
	Period        model.Period   `json:"period"`
	Strategy      Strategy       `json:"strategy"`
	Terms         []Term         `json:"terms"`
	Baselines     Baselines      `json:"baselines"`
	Intercept     float64        `json:"intercept"`
	ReferenceRows int            `json:"reference_rows"`
	Report        *FitReport     `json:"report,omitempty"`
}

// Calibrates reports whether applying the model changes raw values.
func (m *Model) Calibrates() bool {
	return m != nil && m.Strategy != StrategyNone
}

// Adjust returns intercept + Σ coefficient × (value − baseline). A metric the
// subject lacks contributes no deviation.
func (m *Model) Adjust(ctx metric.Lookup) float64 {
	if !m.Calibrates() {
		return 0
	}
	adj := m.Intercept
	for _, t := range m.Terms {
		v, ok := ctx.Get(t.Metric)
		if !ok {
			continue
		}
		adj += t.Coefficient * (v - m.Baselines[t.Metric])
	}
	return adj
}

// Apply returns raw + Adjust(ctx), bounded to [0,100].
func (m *Model) Apply(raw float64, ctx metric.Lookup) float64 {
	if !m.Calibrates() {
		return raw
	}
	return pillar.Clamp(raw + m.Adjust(ctx))
}

// Build derives a position's model from the reference observations using the
// configured strategy. It never returns a model with degenerate
// coefficients: too few rows is ErrInsufficientReferenceData.
func Build(pos model.Position, period model.Period, cfg StrategyConfig, obs []Observation, minRows int) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Strategy == StrategyNone {
		return &Model{Position: pos, Period: period, Strategy: StrategyNone}, nil
	}

	metrics := cfg.Metrics()
	pop := Population(obs, metrics)
	if len(pop) < minRows {
		return nil, fmt.Errorf("%w: %s has %d usable rows, need %d", ErrInsufficientReferenceData, pos, len(pop), minRows)
	}
	baselines, err := ComputeBaselines(pop, metrics)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Position:      pos,
		Period:        period,
		Strategy:      cfg.Strategy,
		Baselines:     baselines,
		ReferenceRows: len(pop),
	}
	switch cfg.Strategy {
	case StrategyDeviation:
		m.Terms = append([]Term(nil), cfg.Terms...)
	case StrategyRegression:
		report, err := Fit(pop, cfg.Terms, baselines, minRows)
		if err != nil {
			return nil, err
		}
		m.Terms = report.Terms
		m.Intercept = report.Intercept
		m.Report = &report
	}
	return m, nil
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	c := *m
	c.Terms = append([]Term(nil), m.Terms...)
	if m.Baselines != nil {
		c.Baselines = make(Baselines, len(m.Baselines))
		for k, v := range m.Baselines {
			c.Baselines[k] = v
		}
	}
	if m.Report != nil {
		r := *m.Report
		r.Terms = append([]Term(nil), m.Report.Terms...)
		c.Report = &r
	}
	return &c
}
