package calibration

import "errors"

// Sentinel errors for calibration.
var (
	// ErrInsufficientReferenceData means too few usable reference rows to
	// derive baselines or fit coefficients.
	ErrInsufficientReferenceData = errors.New("insufficient reference data")
	// ErrDegenerateFit means the design matrix is singular or ill-conditioned.
	ErrDegenerateFit = errors.New("degenerate calibration fit")
	// ErrInvalidStrategy reports a malformed strategy configuration.
	ErrInvalidStrategy = errors.New("invalid calibration strategy")
)
