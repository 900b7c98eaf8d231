package smoke

import "time"

// Batch states reported by the service.
const (
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// Defaults applied by withDefaults.
const (
	defaultChunkSize    = 500
	defaultTopN         = 50
	defaultSpotChecks   = 10
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 200 * time.Millisecond
	scoreTolerance      = 1e-9
)
