package smoke

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

// ErrVerification is wrapped by every consistency failure.
var ErrVerification = errors.New("verification failed")

// verifyResults checks the batch counters, the leaderboard order and that
// single scores agree with the batch.
func verifyResults(ctx context.Context, config *Config, players int, entries []Entry, scores []Score, stats *Stats) error {
	b := stats.Batch
	if total := b.Processed + b.Skipped + b.Errors; total != int64(players) {
		return fmt.Errorf("%w: batch counted %d players, league has %d", ErrVerification, total, players)
	}
	if b.Errors > 0 {
		return fmt.Errorf("%w: batch reported %d errors", ErrVerification, b.Errors)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: empty leaderboard", ErrVerification)
	}
	if err := verifyLeaderboardOrder(entries); err != nil {
		return err
	}
	if err := verifySpotChecks(entries, scores); err != nil {
		return err
	}

	displayTopPerformers(ctx, entries, config.Verbose)
	logger.Get().Info(ctx, "result verification completed")
	return nil
}

// verifyLeaderboardOrder checks descending scores and competition ranks:
// tied scores share a rank and the next rank skips past them.
func verifyLeaderboardOrder(entries []Entry) error {
	if entries[0].Rank != 1 {
		return fmt.Errorf("%w: first rank is %d", ErrVerification, entries[0].Rank)
	}
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.Calibrated > prev.Calibrated {
			return fmt.Errorf("%w: entry %d scores above entry %d", ErrVerification, i, i-1)
		}
		want := i + 1
		if cur.Calibrated == prev.Calibrated {
			want = prev.Rank
		}
		if cur.Rank != want {
			return fmt.Errorf("%w: entry %d has rank %d, want %d", ErrVerification, i, cur.Rank, want)
		}
	}
	return nil
}

func verifySpotChecks(entries []Entry, scores []Score) error {
	for i, s := range scores {
		e := entries[i]
		if s.PlayerID != e.PlayerID {
			return fmt.Errorf("%w: score %d is for %s, want %s", ErrVerification, i, s.PlayerID, e.PlayerID)
		}
		if math.Abs(s.Calibrated-e.Calibrated) > scoreTolerance || s.Tier != e.Tier {
			return fmt.Errorf("%w: %s single score %.6f/%s differs from batch %.6f/%s",
				ErrVerification, e.PlayerID, s.Calibrated, s.Tier, e.Calibrated, e.Tier)
		}
	}
	return nil
}

// displayTopPerformers logs the head of the leaderboard.
func displayTopPerformers(ctx context.Context, entries []Entry, verbose bool) {
	topN := 10
	if verbose || len(entries) < topN {
		topN = len(entries)
	}
	for _, e := range entries[:topN] {
		logger.Get().Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("player_id", e.PlayerID),
			logger.String("position", e.Position),
			logger.Float64("calibrated", e.Calibrated),
			logger.String("tier", e.Tier))
	}
}
