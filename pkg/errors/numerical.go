package errors

import "math"

// maxReported bounds how many offending values a NumericalInstabilityError keeps.
const maxReported = 10

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckNumericalStability fails when values holds NaN or ±Inf, e.g. the
// coefficient vector after a coordinate-descent sweep.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if !finite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckMatrix scans a rows×cols matrix and reports the non-finite values of
// the first row that has any.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols, iteration int) error {
	for i := 0; i < rows; i++ {
		var bad []float64
		for j := 0; j < cols && len(bad) < maxReported; j++ {
			if v := matrix.At(i, j); !finite(v) {
				bad = append(bad, v)
			}
		}
		if len(bad) > 0 {
			return NewNumericalInstabilityError(operation, bad, iteration)
		}
	}
	return nil
}

// ClipValue bounds value to [lo, hi]. NaN maps to lo so the result is
// always inside the range.
func ClipValue(value, lo, hi float64) float64 {
	if math.IsNaN(value) {
		return lo
	}
	return math.Min(hi, math.Max(lo, value))
}

// SoftThreshold is the L1 proximal operator sign(v)·max(|v|-λ, 0).
func SoftThreshold(value, lambda float64) float64 {
	switch {
	case value > lambda:
		return value - lambda
	case value < -lambda:
		return value + lambda
	default:
		return 0
	}
}
