package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxWeek bounds through-week periods.
const MaxWeek = 22

// Period selects either a full season (ThroughWeek == 0) or the prefix of a
// season ending at ThroughWeek.
type Period struct {
	Season      int `json:"season"`
	ThroughWeek int `json:"through_week"`
}

// SeasonPeriod returns the full-season period.
func SeasonPeriod(season int) Period { return Period{Season: season} }

// ThroughWeekPeriod returns the period covering weeks 1..week.
func ThroughWeekPeriod(season, week int) Period {
	return Period{Season: season, ThroughWeek: week}
}

// IsSeason reports whether the period is a full season.
func (p Period) IsSeason() bool { return p.ThroughWeek == 0 }

// Includes reports whether a weekly row belongs to the period.
func (p Period) Includes(week int) bool {
	if week <= 0 {
		return false
	}
	return p.IsSeason() || week <= p.ThroughWeek
}

// Validate checks season and week bounds.
func (p Period) Validate() error {
	if p.Season < 1900 || p.Season > 3000 {
		return fmt.Errorf("%w: season %d", ErrInvalidPeriod, p.Season)
	}
	if p.ThroughWeek < 0 || p.ThroughWeek > MaxWeek {
		return fmt.Errorf("%w: week %d", ErrInvalidPeriod, p.ThroughWeek)
	}
	return nil
}

// Key renders the period as "2024" or "2024-w07".
func (p Period) Key() string {
	if p.IsSeason() {
		return strconv.Itoa(p.Season)
	}
	return fmt.Sprintf("%d-w%02d", p.Season, p.ThroughWeek)
}

func (p Period) String() string { return p.Key() }

// ParsePeriodKey is the inverse of Key.
func ParsePeriodKey(s string) (Period, error) {
	seasonPart, weekPart, hasWeek := strings.Cut(strings.TrimSpace(s), "-w")
	season, err := strconv.Atoi(seasonPart)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	p := Period{Season: season}
	if hasWeek {
		week, err := strconv.Atoi(weekPart)
		if err != nil {
			return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
		}
		p.ThroughWeek = week
	}
	return p, p.Validate()
}
