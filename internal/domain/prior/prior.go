// Package prior holds the league-wide constants that shrinkage, enrichment
// and calibration depend on, as one versioned object.
package prior

import (
	"errors"
	"fmt"
)

// ErrInvalidPriors reports an unusable prior configuration.
var ErrInvalidPriors = errors.New("invalid priors")

// RatePrior describes a smoothed rate: Events/Sample shrunk toward Rate with
// SampleSize pseudo-observations.
type RatePrior struct {
	Name       string  `yaml:"name" json:"name"`
	Events     string  `yaml:"events" json:"events"`
	Sample     string  `yaml:"sample" json:"sample"`
	Rate       float64 `yaml:"rate" json:"rate"`
	SampleSize float64 `yaml:"sample_size" json:"sample_size"`
}

// Config is the prior-configuration object.
type Config struct {
	Version              string      `yaml:"version" json:"version"`
	Rates                []RatePrior `yaml:"rates" json:"rates"`
	MinReferenceRows     int         `yaml:"min_reference_rows" json:"min_reference_rows"`
	MinActiveWeeks       int         `yaml:"min_active_weeks" json:"min_active_weeks"`
	LeaguePassRate       float64     `yaml:"league_pass_rate" json:"league_pass_rate"`
	SchemeSensitivity    float64     `yaml:"scheme_sensitivity" json:"scheme_sensitivity"`
	OpponentWeight       float64     `yaml:"opponent_weight" json:"opponent_weight"`
	HighConfidenceSample float64     `yaml:"high_confidence_sample" json:"high_confidence_sample"`
}

// Default returns the baseline league priors.
func Default() Config {
	return Config{
		Version: "league-2024.1",
		Rates: []RatePrior{
			{Name: "td_rate", Events: "touchdowns", Sample: "touches", Rate: 0.02, SampleSize: 250},
			{Name: "drop_rate", Events: "drops", Sample: "targets", Rate: 0.05, SampleSize: 100},
			{Name: "int_rate", Events: "interceptions", Sample: "pass_attempts", Rate: 0.023, SampleSize: 300},
		},
		MinReferenceRows:     20,
		MinActiveWeeks:       4,
		LeaguePassRate:       0.58,
		SchemeSensitivity:    250,
		OpponentWeight:       0.3,
		HighConfidenceSample: 300,
	}
}

// Validate checks ranges.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Rates))
	for _, r := range c.Rates {
		if r.Name == "" || r.Events == "" || r.Sample == "" {
			return fmt.Errorf("%w: rate prior needs name, events and sample", ErrInvalidPriors)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: duplicate rate %s", ErrInvalidPriors, r.Name)
		}
		seen[r.Name] = struct{}{}
		if r.Rate < 0 || r.SampleSize < 0 {
			return fmt.Errorf("%w: rate %s must be non-negative", ErrInvalidPriors, r.Name)
		}
	}
	if c.MinReferenceRows < 1 {
		return fmt.Errorf("%w: min_reference_rows must be positive", ErrInvalidPriors)
	}
	if c.MinActiveWeeks < 1 {
		return fmt.Errorf("%w: min_active_weeks must be positive", ErrInvalidPriors)
	}
	if c.LeaguePassRate <= 0 || c.LeaguePassRate >= 1 {
		return fmt.Errorf("%w: league_pass_rate must be in (0,1)", ErrInvalidPriors)
	}
	if c.OpponentWeight < 0 || c.OpponentWeight > 1 {
		return fmt.Errorf("%w: opponent_weight must be in [0,1]", ErrInvalidPriors)
	}
	if c.SchemeSensitivity < 0 || c.HighConfidenceSample < 0 {
		return fmt.Errorf("%w: negative sensitivity or sample threshold", ErrInvalidPriors)
	}
	return nil
}
