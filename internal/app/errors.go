package service

import "errors"

// Sentinel errors returned by the service. Scoring failures use the scoring
// package's ErrNoData and ErrComputation.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrBatchInFlight  = errors.New("batch already in flight for period")
	ErrBackpressure   = errors.New("batch queue full")
	ErrBatchNotFound  = errors.New("batch not found")
	ErrInvalidRequest = errors.New("invalid request")
)
