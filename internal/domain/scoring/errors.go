package scoring

import "errors"

// Sentinel errors surfaced by single-entity scoring.
var (
	// ErrNoData means the player has no statistics in the requested period.
	ErrNoData = errors.New("no data for player and period")
	// ErrComputation is an unexpected numeric or configuration failure for
	// one entity.
	ErrComputation = errors.New("score computation failed")
)
