package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

// ErrBatchFailed is returned when the batch ends in the failed state.
var ErrBatchFailed = errors.New("batch failed")

func periodQuery(config *Config) url.Values {
	q := url.Values{}
	q.Set("season", strconv.Itoa(config.Season))
	if config.ThroughWeek > 0 {
		q.Set("week", strconv.Itoa(config.ThroughWeek))
	}
	return q
}

// runBatch triggers the period batch and polls until it finishes.
func runBatch(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) error {
	var acc accepted
	body := map[string]int{"season": config.Season, "week": config.ThroughWeek}
	if err := client.Post(ctx, "/v1/batches", body, &acc); err != nil {
		return fmt.Errorf("trigger batch: %w", err)
	}
	logger.Get().Info(ctx, "batch accepted", logger.String("batch_id", acc.BatchID), logger.String("period", acc.Period))

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()
	for {
		var b BatchStatus
		if err := client.Get(ctx, "/v1/batches/"+acc.BatchID, nil, &b); err != nil {
			return fmt.Errorf("poll batch: %w", err)
		}
		switch b.Status {
		case statusCompleted:
			stats.Batch = b
			logger.Get().Info(ctx, "batch completed",
				logger.Int64("processed", b.Processed),
				logger.Int64("skipped", b.Skipped),
				logger.Int64("errors", b.Errors))
			return nil
		case statusFailed:
			stats.Batch = b
			return fmt.Errorf("%w: %s", ErrBatchFailed, b.Error)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// getLeaderboard fetches the top entries of the period.
func getLeaderboard(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) ([]Entry, error) {
	q := periodQuery(config)
	q.Set("limit", strconv.Itoa(config.TopN))
	var lb leaderboard
	if err := client.Get(ctx, "/v1/leaderboard", q, &lb); err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	stats.LeaderboardEntries = len(lb.Entries)
	logger.Get().Info(ctx, "leaderboard retrieved", logger.Int("entries", len(lb.Entries)))
	return lb.Entries, nil
}

// retrieveScores re-scores leaderboard players through the cached single
// score endpoint with bounded concurrency.
func retrieveScores(ctx context.Context, client *HTTPClient, config *Config, entries []Entry, stats *Stats) ([]Score, error) {
	n := min(config.SpotChecks, len(entries))
	scores := make([]Score, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for i := range n {
		g.Go(func() error {
			path := "/v1/players/" + url.PathEscape(entries[i].PlayerID) + "/score"
			if err := client.Get(gctx, path, periodQuery(config), &scores[i]); err != nil {
				return fmt.Errorf("score %s: %w", entries[i].PlayerID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		stats.RequestsFailed++
		return nil, err
	}
	stats.SpotChecked = n
	return scores, nil
}
