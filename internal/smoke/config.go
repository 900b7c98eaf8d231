package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Season       int           // Season of the generated league
	Weeks        int           // Weeks generated per player
	Teams        int           // Teams in the generated league
	Seed         uint64        // Generator seed
	ThroughWeek  int           // Period to batch; 0 is the full season
	ChunkSize    int           // Rows per POST /v1/stats request
	Workers      int           // Concurrent requests
	TopN         int           // Leaderboard entries to fetch
	SpotChecks   int           // Leaderboard entries re-scored one by one
	Timeout      time.Duration // HTTP request timeout
	PollInterval time.Duration // Batch status polling interval
	Verbose      bool          // Log every leaderboard entry
}

// Stats holds run statistics.
type Stats struct {
	RowsGenerated      int
	RowsSubmitted      int
	RequestsFailed     int
	Batch              BatchStatus
	LeaderboardEntries int
	SpotChecked        int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// BatchStatus mirrors GET /v1/batches/{id}.
type BatchStatus struct {
	ID        string `json:"id"`
	Period    string `json:"period"`
	Status    string `json:"status"`
	Processed int64  `json:"processed"`
	Skipped   int64  `json:"skipped"`
	Errors    int64  `json:"errors"`
	Error     string `json:"error,omitempty"`
}

// Entry mirrors one leaderboard entry.
type Entry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	Position   string  `json:"position"`
	Calibrated float64 `json:"calibrated"`
	Composite  float64 `json:"composite"`
	Tier       string  `json:"tier"`
}

// Score mirrors the fields of GET /v1/players/{id}/score the run checks.
type Score struct {
	PlayerID   string  `json:"player_id"`
	Calibrated float64 `json:"calibrated"`
	Composite  float64 `json:"composite"`
	Tier       string  `json:"tier"`
}

type leaderboard struct {
	Period  string  `json:"period"`
	Entries []Entry `json:"entries"`
}

type accepted struct {
	BatchID string `json:"batch_id"`
	Status  string `json:"status"`
	Period  string `json:"period"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
