package utils

import (
	"math"
)

// RoundHalfUp rounds to the nearest integer with .5 going up, so -2.5 becomes -2.
func RoundHalfUp(value float64) int {
	return int(math.Floor(value + 0.5))
}

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Floor(value*factor+0.5) / factor
}

// Clamp limits a value between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Lerp performs linear interpolation between two values
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}
