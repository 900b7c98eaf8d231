package smoke

import (
	"fmt"
	"os"
)

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	fmt.Fprint(os.Stdout, `Alpha Smoke Tool
================

Submits a synthetic league to a running scoring service, runs a period
batch and verifies the leaderboard against single-player scores.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -season int        Season to generate (default 2024)
  -weeks int         Weeks per player (default 10)
  -teams int         Teams in the league (default 12)
  -seed uint         Generator seed (default 7)
  -week int          Through-week of the batched period; 0 is the full season
  -chunk int         Rows per ingest request (default 500)
  -workers int       Concurrent requests (default CPU cores)
  -top int           Leaderboard entries to fetch (default 50)
  -checks int        Leaderboard entries re-scored one by one (default 10)
  -timeout duration  HTTP request timeout (default 30s)
  -verbose           Log every leaderboard entry
  -help              Show this help message

Examples:
  go run ./cmd/smoke -week 6
  go run ./cmd/smoke -teams 32 -weeks 17 -workers 16
`)
}
