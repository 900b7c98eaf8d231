// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Position is a roster position scored with its own profile.
type Position string

// Supported positions.
const (
	QB Position = "QB"
	RB Position = "RB"
	WR Position = "WR"
	TE Position = "TE"
)

// Positions lists every supported position in display order.
var Positions = []Position{QB, RB, WR, TE}

// ParsePosition normalizes and validates a position code.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case QB, RB, WR, TE:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPosition, s)
}

// Stat keys shared by ingestion, enrichment and the default profile.
const (
	StatSnaps            = "snaps"
	StatTeamSnaps        = "team_snaps"
	StatTeamPassAttempts = "team_pass_attempts"
	StatTeamRushAttempts = "team_rush_attempts"
	StatDefenseRating    = "defense_rating"
)

// RawStatRow is one player's statistics for one week, or for a whole season
// when Week is zero. Rows are immutable once recorded.
type RawStatRow struct {
	PlayerID string             `json:"player_id"`
	Name     string             `json:"name,omitempty"`
	Team     string             `json:"team"`
	Opponent string             `json:"opponent,omitempty"`
	Position Position           `json:"position"`
	Season   int                `json:"season"`
	Week     int                `json:"week"`
	Stats    map[string]float64 `json:"stats"`
}

// IsSeasonTotal reports whether the row is a season aggregate.
func (r RawStatRow) IsSeasonTotal() bool { return r.Week == 0 }

// Active reports whether the player recorded any positive stat in the row.
func (r RawStatRow) Active() bool {
	for _, v := range r.Stats {
		if v > 0 {
			return true
		}
	}
	return false
}

// TeamWeekRow holds team-level totals for one week.
type TeamWeekRow struct {
	Team   string             `json:"team"`
	Season int                `json:"season"`
	Week   int                `json:"week"`
	Stats  map[string]float64 `json:"stats"`
}

// PlayerRef identifies a scorable player in a season.
type PlayerRef struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Team     string   `json:"team"`
	Position Position `json:"position"`
}

// ReferenceBenchmarkRow is an externally adjusted value used only to fit and
// validate calibration.
type ReferenceBenchmarkRow struct {
	PlayerID      string   `json:"player_id"`
	Team          string   `json:"team"`
	Position      Position `json:"position"`
	Season        int      `json:"season"`
	ThroughWeek   int      `json:"through_week"`
	RawValue      float64  `json:"raw_value"`
	AdjustedValue float64  `json:"adjusted_value"`
	SampleSize    float64  `json:"sample_size"`
}
