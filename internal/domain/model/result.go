package model

// Confidence grades how much a score should be trusted.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// PillarScore is one named 0..100 sub-score.
type PillarScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// ResultKey identifies a ScoreResult.
type ResultKey struct {
	PlayerID string `json:"player_id"`
	Period   Period `json:"period"`
}

// ScoreResult is the output of scoring one player for one period. It holds
// no wall-clock data, so rescoring unchanged inputs yields identical values.
type ScoreResult struct {
	PlayerID       string        `json:"player_id"`
	Name           string        `json:"name,omitempty"`
	Team           string        `json:"team"`
	Position       Position      `json:"position"`
	Season         int           `json:"season"`
	ThroughWeek    int           `json:"through_week"`
	Pillars        []PillarScore `json:"pillars"`
	Composite      float64       `json:"composite"`
	Calibrated     float64       `json:"calibrated"`
	IsCalibrated   bool          `json:"is_calibrated"`
	Tier           string        `json:"tier"`
	TierRank       int           `json:"tier_rank"`
	Confidence     Confidence    `json:"confidence"`
	SampleSize     float64       `json:"sample_size"`
	ActiveWeeks    int           `json:"active_weeks"`
	ProfileVersion string        `json:"profile_version"`
}

// Period returns the result's period.
func (r ScoreResult) Period() Period {
	return Period{Season: r.Season, ThroughWeek: r.ThroughWeek}
}

// Key returns the result's identity.
func (r ScoreResult) Key() ResultKey {
	return ResultKey{PlayerID: r.PlayerID, Period: r.Period()}
}

// Pillar returns the named pillar score.
func (r ScoreResult) Pillar(name string) (float64, bool) {
	for _, p := range r.Pillars {
		if p.Name == name {
			return p.Score, true
		}
	}
	return 0, false
}
