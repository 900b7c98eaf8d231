// Package metric binds metric keys to values for one player-period.
package metric

import "math"

// Lookup resolves a metric key to a value. The boolean is false when the
// metric is unavailable.
type Lookup interface {
	Get(key string) (float64, bool)
}

// Func adapts a function to Lookup.
type Func func(key string) (float64, bool)

// Get implements Lookup.
func (f Func) Get(key string) (float64, bool) { return f(key) }

// Values is a map-backed Lookup. Non-finite values count as unavailable.
type Values map[string]float64

// Get implements Lookup.
func (v Values) Get(key string) (float64, bool) {
	x, ok := v[key]
	if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// Merge returns a lookup consulting layers last-first, so later layers
// override earlier ones.
func Merge(layers ...Lookup) Lookup {
	return Func(func(key string) (float64, bool) {
		for i := len(layers) - 1; i >= 0; i-- {
			if layers[i] == nil {
				continue
			}
			if x, ok := layers[i].Get(key); ok {
				return x, true
			}
		}
		return 0, false
	})
}

// Unavailable is a Lookup with no metrics.
var Unavailable Lookup = Func(func(string) (float64, bool) { return 0, false })
