// Package tier buckets calibrated scores into ordered, labelled tiers.
package tier

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLadder reports cutoffs that are empty, unlabelled or not
// strictly decreasing.
var ErrInvalidLadder = errors.New("invalid tier ladder")

// Tier is one bucket: scores at or above Cutoff qualify.
type Tier struct {
	Label  string  `yaml:"label" json:"label"`
	Cutoff float64 `yaml:"cutoff" json:"cutoff"`
}

// Ladder lists tiers from best to worst.
type Ladder []Tier

// Validate requires labels and strictly decreasing cutoffs.
func (l Ladder) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("%w: no tiers", ErrInvalidLadder)
	}
	seen := make(map[string]struct{}, len(l))
	for i, t := range l {
		if t.Label == "" {
			return fmt.Errorf("%w: tier %d has no label", ErrInvalidLadder, i+1)
		}
		if _, dup := seen[t.Label]; dup {
			return fmt.Errorf("%w: duplicate label %s", ErrInvalidLadder, t.Label)
		}
		seen[t.Label] = struct{}{}
		if math.IsNaN(t.Cutoff) {
			return fmt.Errorf("%w: tier %s cutoff is NaN", ErrInvalidLadder, t.Label)
		}
		if i > 0 && t.Cutoff >= l[i-1].Cutoff {
			return fmt.Errorf("%w: %s cutoff %.2f not below %s cutoff %.2f",
				ErrInvalidLadder, t.Label, t.Cutoff, l[i-1].Label, l[i-1].Cutoff)
		}
	}
	return nil
}

// Map returns the first tier whose cutoff the score meets, else the lowest
// tier. Rank is 1-based, 1 being best.
func (l Ladder) Map(score float64) (label string, rank int) {
	if len(l) == 0 {
		return "", 0
	}
	for i, t := range l {
		if score >= t.Cutoff {
			return t.Label, i + 1
		}
	}
	return l[len(l)-1].Label, len(l)
}
