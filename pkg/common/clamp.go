package common

import "golang.org/x/exp/constraints"

// Clamp bounds v to [lo, hi]. Lifted out of the repeated
// "if low < 0 { low = 0 }; if high >= n { high = n-1 }" pattern that
// appears at every error-bound lookup in the teacher's learned index.
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
