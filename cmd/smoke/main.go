package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/smoke"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		season  = flag.Int("season", 2024, "Season to generate")
		weeks   = flag.Int("weeks", 10, "Weeks per player")
		teams   = flag.Int("teams", 12, "Teams in the league")
		seed    = flag.Uint64("seed", 7, "Generator seed")
		week    = flag.Int("week", 0, "Through-week of the batched period; 0 is the full season")
		chunk   = flag.Int("chunk", 500, "Rows per ingest request")
		workers = flag.Int("workers", 0, "Concurrent requests (default CPU cores)")
		topN    = flag.Int("top", 50, "Leaderboard entries to fetch")
		checks  = flag.Int("checks", 10, "Leaderboard entries re-scored one by one")
		timeout = flag.Duration("timeout", 30*time.Second, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Log every leaderboard entry")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &smoke.Config{
		BaseURL:     *baseURL,
		Season:      *season,
		Weeks:       *weeks,
		Teams:       *teams,
		Seed:        *seed,
		ThroughWeek: *week,
		ChunkSize:   *chunk,
		Workers:     *workers,
		TopN:        *topN,
		SpotChecks:  *checks,
		Timeout:     *timeout,
		Verbose:     *verbose,
	}
	if _, err := smoke.Run(ctx, cfg, nil); err != nil {
		logger.Get().Error(ctx, "smoke run failed", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
