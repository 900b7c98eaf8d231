package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidResult = errors.New("invalid score result")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// ErrStaleState reports that a period replace lost a race with another
// writer. Nothing was applied; the caller retries the whole replace.
var ErrStaleState = errors.New("stale period state")
