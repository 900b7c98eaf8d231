package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/calibration"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/types"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func renderScore(w io.Writer, r model.ScoreResult) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s  %s %s  %s", r.PlayerID, r.Position, r.Team, r.Period().Key())))
	t := newTable("pillar", "score")
	for _, p := range r.Pillars {
		t.Row(p.Name, f2(p.Score))
	}
	fmt.Fprintln(w, t.Render())

	calibrated := warnStyle.Render("uncalibrated")
	if r.IsCalibrated {
		calibrated = okStyle.Render("calibrated")
	}
	fmt.Fprintf(w, "composite %s  alpha %s (%s)  tier %s #%d  confidence %s  weeks %d\n",
		f2(r.Composite), f2(r.Calibrated), calibrated, r.Tier, r.TierRank, r.Confidence, r.ActiveWeeks)
}

func renderLeaderboard(w io.Writer, entries []types.Entry) {
	t := newTable("rank", "player", "name", "team", "pos", "alpha", "composite", "tier", "confidence")
	for _, e := range entries {
		t.Row(strconv.Itoa(e.Rank), e.PlayerID, e.Name, e.Team, string(e.Position),
			f2(e.Calibrated), f2(e.Composite), e.Tier, string(e.Confidence))
	}
	fmt.Fprintln(w, t.Render())
}

func renderModel(w io.Writer, m *calibration.Model) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s %s  %s  %d reference rows", m.Position, m.Period.Key(), m.Strategy, m.ReferenceRows)))
	t := newTable("term", "metric", "coefficient", "baseline")
	for _, term := range m.Terms {
		t.Row(term.Name, term.Metric, strconv.FormatFloat(term.Coefficient, 'g', 6, 64), f2(m.Baselines[term.Metric]))
	}
	fmt.Fprintln(w, t.Render())
	if m.Report != nil {
		fmt.Fprintf(w, "intercept %s  r2 %.4f  rmse %.4f  rows %d\n",
			strconv.FormatFloat(m.Report.Intercept, 'g', 6, 64), m.Report.R2, m.Report.RMSE, m.Report.Rows)
	}
}
