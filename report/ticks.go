package report

import (
	"math"
	"strconv"
)

// IntegerTicks returns at most n+1 evenly spaced integer ticks covering
// [min, max]. Steps are picked from 1, 2, 5 times a power of ten and never
// drop below 1, so small counts do not get fractional labels.
func IntegerTicks(min, max float64, n int) []float64 {
	if n < 1 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max < min {
		min, max = max, min
	}
	step := integerStep((max - min) / float64(n))
	start := math.Ceil(min/step) * step
	ticks := make([]float64, 0, n+1)
	for v := start; v <= max+step/1e6; v += step {
		ticks = append(ticks, v)
	}
	if len(ticks) == 0 {
		ticks = append(ticks, start)
	}
	return ticks
}

// NiceCeil rounds max up to the next tick boundary, at least 1. It stands in
// for an auto-scaled domain that always includes zero.
func NiceCeil(max float64, n int) float64 {
	if max <= 0 || n < 1 {
		return 1
	}
	step := integerStep(max / float64(n))
	return math.Ceil(max/step) * step
}

func integerStep(raw float64) float64 {
	if raw <= 1 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, c := range []float64{1, 2, 5, 10} {
		if step := c * mag; step >= raw {
			return step
		}
	}
	return 10 * mag
}

// FormatTick renders a tick value with no decimals.
func FormatTick(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}
