package model

import "errors"

// Sentinel errors for model validation.
var (
	ErrUnknownPosition = errors.New("unknown position")
	ErrInvalidPeriod   = errors.New("invalid period")
)
