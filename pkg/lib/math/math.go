package math

import (
	"golang.org/x/exp/constraints"
)

// Number is a constraint that permits any numeric type.
type Number interface {
	constraints.Integer | constraints.Float
}

// Min returns the smallest of the provided values. At least one value must be
// provided, otherwise the zero value of T is returned.
func Min[T constraints.Ordered](values ...T) T {
	var min T
	if len(values) == 0 {
		return min
	}
	min = values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest of the provided values. At least one value must be
// provided, otherwise the zero value of T is returned.
func Max[T constraints.Ordered](values ...T) T {
	var max T
	if len(values) == 0 {
		return max
	}
	max = values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Abs returns the absolute value of the provided number.
func Abs[T Number](value T) T {
	if value < 0 {
		return -value
	}
	return value
}

// Clamp limits value to the inclusive range [min, max].
func Clamp[T constraints.Ordered](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
