package utils

import "math"

// Round3 rounds a value to 3 decimal places, the precision of all jackpot
// amounts and click distances.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Distance returns the Euclidean distance between two grid points, rounded to
// 3 decimal places. A distance of exactly 0 means the click hit the target.
func Distance(x1, y1, x2, y2 int) float64 {
	return Round3(math.Hypot(float64(x1-x2), float64(y1-y2)))
}

// Clamp bounds a value to the [min, max] range.
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
