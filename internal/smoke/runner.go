// Package smoke drives a running scoring service end to end: it submits a
// synthetic league, runs a period batch and checks the leaderboard against
// single-player scores.
package smoke

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

func (c *Config) withDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.TopN <= 0 {
		c.TopN = defaultTopN
	}
	if c.SpotChecks < 0 {
		c.SpotChecks = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
}

// Run executes a complete smoke run against config.BaseURL. hc may be nil.
func Run(ctx context.Context, config *Config, hc *http.Client) (*Stats, error) {
	config.withDefaults()
	stats := &Stats{StartTime: time.Now()}
	client := NewHTTPClient(config.BaseURL, config.Timeout, hc)

	logger.Get().Info(ctx, "starting smoke run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("season", config.Season),
		logger.Int("throughWeek", config.ThroughWeek),
		logger.Int("workers", config.Workers))

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	l := generateLeague(ctx, config, stats)
	if err := submitLeague(ctx, client, config, l, stats); err != nil {
		return stats, fmt.Errorf("league submission failed: %w", err)
	}

	if err := runBatch(ctx, client, config, stats); err != nil {
		return stats, fmt.Errorf("batch failed: %w", err)
	}

	entries, err := getLeaderboard(ctx, client, config, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	scores, err := retrieveScores(ctx, client, config, entries, stats)
	if err != nil {
		return stats, fmt.Errorf("score retrieval failed: %w", err)
	}

	if err := verifyResults(ctx, config, len(l.Players), entries, scores, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := client.Get(ctx, "/healthz", nil, &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", body.Status)
	}
	return nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var rowsPerSecond float64
	if stats.Duration > 0 {
		rowsPerSecond = float64(stats.RowsSubmitted) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("rowsGenerated", stats.RowsGenerated),
		logger.Int("rowsSubmitted", stats.RowsSubmitted),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int64("processed", stats.Batch.Processed),
		logger.Int64("skipped", stats.Batch.Skipped),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Int("spotChecked", stats.SpotChecked),
		logger.Duration("duration", stats.Duration),
		logger.Float64("rowsPerSecond", rowsPerSecond))
}
