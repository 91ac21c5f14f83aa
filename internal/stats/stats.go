package stats

import (
	"math"
	"sort"
)

// Latency summarises a set of per-item write times in milliseconds.
type Latency struct {
	Count     int
	AvgMs     float64
	P95Ms     float64
	StdDevMs  float64
	Stability float64
}

// Summarize computes mean, nearest-rank P95, population standard deviation
// and the stability score of samples. The input slice is not modified.
// An empty sample set yields the zero Latency.
func Summarize(samples []float64) Latency {
	if len(samples) == 0 {
		return Latency{}
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	mean := Mean(sorted)
	sd := StdDev(sorted, mean)

	return Latency{
		Count:     len(sorted),
		AvgMs:     mean,
		P95Ms:     Percentile(sorted, 0.95),
		StdDevMs:  sd,
		Stability: StabilityScore(mean, sd),
	}
}

// Mean returns the arithmetic mean, or 0 for no samples.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

// Percentile returns sorted[floor(q*n)], clamped to the last element.
// sorted must be ascending; q is a fraction in [0,1].
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	i := int(math.Floor(q * float64(n)))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return sorted[i]
}

// StdDev is the population standard deviation around mean.
func StdDev(samples []float64, mean float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sq := 0.0
	for _, v := range samples {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(samples)))
}

// StabilityScore is 100 minus the coefficient of variation in percent,
// floored at 0. A zero mean scores 0.
func StabilityScore(mean, stddev float64) float64 {
	if mean <= 0 {
		return 0
	}
	return math.Max(0, 100-(stddev/mean)*100)
}
