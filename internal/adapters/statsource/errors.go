package statsource

import "errors"

// Sentinel kinds for statistics source errors.
var (
	ErrRowConflict = errors.New("stat row already recorded with different values")
	ErrInvalidRow  = errors.New("invalid stat row")
	ErrInvalidCSV  = errors.New("invalid benchmark csv")
)
