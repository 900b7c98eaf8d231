package aggregate

import "errors"

// Sentinel errors for aggregation.
var (
	ErrNoRows         = errors.New("no weekly rows in period")
	ErrOutOfOrder     = errors.New("weekly rows out of order")
	ErrSeasonRow      = errors.New("season total row passed as weekly row")
	ErrNotSeasonRow   = errors.New("weekly row passed as season total")
	ErrPlayerMismatch = errors.New("row belongs to another player or season")
	ErrInvalidGames   = errors.New("season games must be a whole number of weeks")
)
