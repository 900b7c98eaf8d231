package pillar

import "errors"

// Sentinel errors for pillar configuration.
var (
	ErrInvalidConfig    = errors.New("invalid pillar config")
	ErrUnknownTransform = errors.New("unknown transform")
)
