package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Saturate narrows an unsigned value to a byte, pinning overflow at 255.
func Saturate[T constraints.Unsigned](v T) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}
