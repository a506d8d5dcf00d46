package services

import "math"

// ReverseScore reflects a raw answer across the midpoint of [min, max]
// (e.g., on a 1..5 scale, 2 becomes 4). Callers validate the range first.
func ReverseScore(raw, min, max float64) float64 {
	return max + min - raw
}

// InScale reports whether raw lies within the inclusive scale bounds.
func InScale(raw, min, max float64) bool {
	return raw >= min && raw <= max
}

// IntegralScale reports whether both scale bounds are whole numbers. Answers on
// such a scale must be whole numbers too, which keeps every attainable score
// on the grid ValidateBands enumerates.
func IntegralScale(min, max float64) bool {
	return isWhole(min) && isWhole(max)
}

func isWhole(v float64) bool {
	return v == math.Trunc(v) && !math.IsInf(v, 0)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
