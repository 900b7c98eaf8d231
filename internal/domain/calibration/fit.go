package calibration

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FitReport carries fitted coefficients and diagnostics.
type FitReport struct {
	Terms     []Term  `json:"terms"`
	Intercept float64 `json:"intercept"`
	RMSE      float64 `json:"rmse"`
	R2        float64 `json:"r2"`
	Rows      int     `json:"rows"`
}

// MinRows is the fewest rows a fit with k terms accepts.
func MinRows(configured, k int) int {
	need := k + 2
	if configured > need {
		return configured
	}
	return need
}

// Fit solves ordinary least squares with an intercept, regressing
// (adjusted − raw) on each metric's deviation from its baseline.
func Fit(pop []Observation, terms []Term, baselines Baselines, minRows int) (FitReport, error) {
	k := len(terms)
	n := len(pop)
	if need := MinRows(minRows, k); n < need {
		return FitReport{}, fmt.Errorf("%w: %d rows, need %d", ErrInsufficientReferenceData, n, need)
	}

	x := mat.NewDense(n, k+1, nil)
	y := mat.NewVecDense(n, nil)
	for i, o := range pop {
		x.Set(i, 0, 1)
		for j, t := range terms {
			v, _ := o.Context.Get(t.Metric)
			x.Set(i, j+1, v-baselines[t.Metric])
		}
		y.SetVec(i, o.Adjusted-o.Raw)
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return FitReport{}, fmt.Errorf("%w: condition %g", ErrDegenerateFit, float64(cond))
		}
		return FitReport{}, fmt.Errorf("solve least squares: %w", err)
	}

	estimates := make([]float64, n)
	values := make([]float64, n)
	sse := 0.0
	for i := 0; i < n; i++ {
		est := mat.Dot(x.RowView(i), &beta)
		estimates[i] = est
		values[i] = y.AtVec(i)
		r := values[i] - est
		sse += r * r
	}

	report := FitReport{
		Terms:     make([]Term, k),
		Intercept: beta.AtVec(0),
		RMSE:      math.Sqrt(sse / float64(n)),
		R2:        stat.RSquaredFrom(estimates, values, nil),
		Rows:      n,
	}
	if math.IsNaN(report.R2) || math.IsInf(report.R2, 0) {
		// Constant target: perfect when residuals vanish.
		report.R2 = 0
		if sse == 0 {
			report.R2 = 1
		}
	}
	for j, t := range terms {
		report.Terms[j] = Term{Name: t.Name, Metric: t.Metric, Coefficient: beta.AtVec(j + 1)}
		if math.IsNaN(report.Terms[j].Coefficient) {
			return FitReport{}, fmt.Errorf("%w: NaN coefficient for %s", ErrDegenerateFit, t.Metric)
		}
	}
	return report, nil
}
