package controller

import "math"

// Policy is the AIMD-style congestion control rule applied after each batch.
type Policy struct {
	Min, Max          int
	Step              int
	IncreaseThreshold float64
	DecreaseThreshold float64
	BackoffFactor     float64
	DecayFactor       float64
}

// Adjust returns the concurrency for the next batch.
//
// Any error halves concurrency regardless of throughput. Without errors a
// throughput gain above IncreaseThreshold adds Step, a loss below
// DecreaseThreshold scales by DecayFactor, and anything in between holds.
// The result always lies in [Min, Max].
func (p Policy) Adjust(errors int, throughput, last float64, current int) (int, Decision) {
	switch {
	case errors > 0:
		return p.clamp(int(math.Floor(float64(current) * p.BackoffFactor))), DecisionBackoff
	case throughput > last*p.IncreaseThreshold:
		return p.clamp(current + p.Step), DecisionIncrease
	case throughput < last*p.DecreaseThreshold:
		return p.clamp(int(math.Floor(float64(current) * p.DecayFactor))), DecisionDecrease
	default:
		return p.clamp(current), DecisionHold
	}
}

func (p Policy) clamp(c int) int {
	return max(p.Min, min(p.Max, c))
}
