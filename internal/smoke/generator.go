package smoke

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/synthetic"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

type ingestBody struct {
	Rows      []model.RawStatRow  `json:"rows,omitempty"`
	TeamWeeks []model.TeamWeekRow `json:"team_weeks,omitempty"`
}

// generateLeague builds the deterministic league the run submits.
func generateLeague(ctx context.Context, config *Config, stats *Stats) *synthetic.League {
	l := synthetic.Generate(synthetic.Config{
		Season: config.Season,
		Weeks:  config.Weeks,
		Teams:  config.Teams,
		Seed:   config.Seed,
	})
	stats.RowsGenerated = len(l.Rows)
	logger.Get().Info(ctx, "league generated",
		logger.Int("season", l.Config.Season),
		logger.Int("players", len(l.Players)),
		logger.Int("rows", len(l.Rows)))
	return l
}

// submitLeague posts team rows, then player rows in chunks with bounded
// concurrency. Rows are immutable on the server, so a rerun with the same
// seed resubmits cleanly.
func submitLeague(ctx context.Context, client *HTTPClient, config *Config, l *synthetic.League, stats *Stats) error {
	if err := client.Post(ctx, "/v1/stats", ingestBody{TeamWeeks: l.TeamWeeks}, nil); err != nil {
		return fmt.Errorf("submit team weeks: %w", err)
	}

	var submitted, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for start := 0; start < len(l.Rows); start += config.ChunkSize {
		chunk := l.Rows[start:min(start+config.ChunkSize, len(l.Rows))]
		g.Go(func() error {
			if err := client.Post(gctx, "/v1/stats", ingestBody{Rows: chunk}, nil); err != nil {
				failed.Add(1)
				return fmt.Errorf("submit rows: %w", err)
			}
			n := submitted.Add(int64(len(chunk)))
			if config.Verbose {
				logger.Get().Debug(gctx, "rows submitted", logger.Int64("total", n))
			}
			return nil
		})
	}
	err := g.Wait()
	stats.RowsSubmitted = int(submitted.Load())
	stats.RequestsFailed += int(failed.Load())
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "league submitted", logger.Int("rows", stats.RowsSubmitted))
	return nil
}
