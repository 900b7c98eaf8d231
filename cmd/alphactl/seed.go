package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/enrich"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/scoring"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/synthetic"
)

func newSeedCmd(c *cli) *cobra.Command {
	var (
		gen        synthetic.Config
		benchmarks bool
		benchWeek  int
		noise      float64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a deterministic synthetic league",
		Long: `Generates a synthetic league and records its rows in the store.

With --benchmarks, reference benchmark rows are also derived for every
position for the --benchmarks-week period, so calibrate has data to fit.

Examples:
  alphactl seed --season 2024 --weeks 12 --teams 16
  alphactl seed --season 2024 --benchmarks --benchmarks-week 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			l := synthetic.Generate(gen)
			if err := l.Load(ctx, s.stores.Stats); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seeded season %d: %d players, %d rows, %d team rows\n",
				l.Config.Season, len(l.Players), len(l.Rows), len(l.TeamWeeks))
			if !benchmarks {
				return nil
			}

			p := model.Period{Season: l.Config.Season, ThroughWeek: benchWeek}
			if err := p.Validate(); err != nil {
				return err
			}
			truth := synthetic.Truth{
				Intercept: 2,
				Coefficients: map[string]float64{
					enrich.KeySnapShare:       6,
					enrich.KeyOpponentQuality: 0.04,
				},
				Noise: noise,
			}
			eng := scoring.NewEngine(s.profile)
			var all []model.ReferenceBenchmarkRow
			for _, pos := range s.profile.PositionList() {
				rows, err := l.Benchmarks(ctx, s.stores.Stats, eng, p, pos, truth)
				if err != nil {
					return fmt.Errorf("benchmarks %s: %w", pos, err)
				}
				all = append(all, rows...)
			}
			res, err := s.svc.ImportBenchmarks(ctx, p, all)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %d benchmark rows for %s\n", res.Imported, res.Period)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&gen.Season, "season", 2024, "season to generate")
	f.IntVar(&gen.Weeks, "weeks", 10, "weeks per player")
	f.IntVar(&gen.Teams, "teams", 12, "teams in the league")
	f.Uint64Var(&gen.Seed, "seed", 7, "generator seed")
	f.BoolVar(&gen.SeasonTotals, "season-totals", false, "also record week-0 season total rows")
	f.BoolVar(&benchmarks, "benchmarks", false, "derive and import reference benchmarks")
	f.IntVar(&benchWeek, "benchmarks-week", 0, "through-week of the benchmark period; 0 is the full season")
	f.Float64Var(&noise, "noise", 0.5, "benchmark noise standard deviation")
	return cmd
}
