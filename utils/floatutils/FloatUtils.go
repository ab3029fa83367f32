// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// WrapPi wraps an angle in radians to the interval (-π, π]
func WrapPi(theta float64) float64 {
	wrapped := math.Mod(theta+math.Pi, 2*math.Pi)
	if wrapped <= 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

// Norm returns the Euclidean norm of a slice of float64
func Norm(values []float64) float64 {
	var sum float64
	for _, value := range values {
		sum += value * value
	}
	return math.Sqrt(sum)
}

// Sign returns -1.0, 0.0, or 1.0 depending on the sign of value
func Sign(value float64) float64 {
	if value > 0 {
		return 1.0
	} else if value < 0 {
		return -1.0
	}
	return 0.0
}
