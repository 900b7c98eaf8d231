// Package types contains request and response shapes shared by the HTTP,
// CLI and tool surfaces.
package types

import (
	"time"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub007/internal/domain/model"
)

// Entry represents a leaderboard entry.
type Entry struct {
	Rank       int              `json:"rank"`
	PlayerID   string           `json:"player_id"`
	Name       string           `json:"name,omitempty"`
	Team       string           `json:"team"`
	Position   model.Position   `json:"position"`
	Calibrated float64          `json:"calibrated"`
	Composite  float64          `json:"composite"`
	Tier       string           `json:"tier"`
	Confidence model.Confidence `json:"confidence"`
}

// NewEntry flattens a ranked result.
func NewEntry(rank int, r model.ScoreResult) Entry {
	return Entry{
		Rank:       rank,
		PlayerID:   r.PlayerID,
		Name:       r.Name,
		Team:       r.Team,
		Position:   r.Position,
		Calibrated: r.Calibrated,
		Composite:  r.Composite,
		Tier:       r.Tier,
		Confidence: r.Confidence,
	}
}

// PeriodRequest names a season, or a through-week prefix when Week > 0.
type PeriodRequest struct {
	Season int `json:"season"`
	Week   int `json:"week,omitempty"`
}

// Period converts and validates the request.
func (r PeriodRequest) Period() (model.Period, error) {
	p := model.Period{Season: r.Season, ThroughWeek: r.Week}
	if err := p.Validate(); err != nil {
		return model.Period{}, err
	}
	return p, nil
}

// BatchAccepted acknowledges a queued batch.
type BatchAccepted struct {
	BatchID string `json:"batch_id"`
	Status  string `json:"status"`
	Period  string `json:"period"`
}

// FitRequest asks for a calibration fit for one position.
type FitRequest struct {
	PeriodRequest
	Position string `json:"position"`
}

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Batch lifecycle states.
const (
	BatchQueued    = "queued"
	BatchRunning   = "running"
	BatchCompleted = "completed"
	BatchFailed    = "failed"
)

// Batch reports the progress of one period recomputation.
type Batch struct {
	ID         string     `json:"id"`
	Period     string     `json:"period"`
	Status     string     `json:"status"`
	Processed  int64      `json:"processed"`
	Skipped    int64      `json:"skipped"`
	Errors     int64      `json:"errors"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Done reports whether the batch reached a terminal state.
func (b Batch) Done() bool {
	return b.Status == BatchCompleted || b.Status == BatchFailed
}

// ImportResult acknowledges a benchmark import.
type ImportResult struct {
	Period   string `json:"period"`
	Imported int    `json:"imported"`
}
