package controller

import (
	"context"
	"time"
)

// WriteFunc performs one opaque write of key and reports how long it took.
// A non-nil error marks the attempt as failed; the duration is then ignored.
type WriteFunc func(ctx context.Context, key string) (time.Duration, error)

// Outcome is the immutable record a write task hands back to the
// coordinating goroutine. Exactly one is produced per attempted key.
type Outcome struct {
	Key       string
	Elapsed   time.Duration
	Succeeded bool
	Err       error
}

// ElapsedMs is Elapsed in (fractional) milliseconds.
func (o Outcome) ElapsedMs() float64 {
	return float64(o.Elapsed) / float64(time.Millisecond)
}

// Decision names the branch the congestion policy took for a batch.
type Decision string

const (
	DecisionBackoff  Decision = "backoff"
	DecisionIncrease Decision = "increase"
	DecisionDecrease Decision = "decrease"
	DecisionHold     Decision = "hold"
)

// BatchReport describes one completed batch.
type BatchReport struct {
	Index           int      `json:"index"`
	Attempted       int      `json:"attempted"`
	Errors          int      `json:"errors"`
	ElapsedSeconds  float64  `json:"elapsedSeconds"`
	ThroughputMBs   float64  `json:"throughputMBs"`
	Concurrency     int      `json:"concurrency"`
	NextConcurrency int      `json:"nextConcurrency"`
	Decision        Decision `json:"decision"`
	// Done and Total count keys attempted so far and in the whole run.
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Summary is the result of a run.
//
// ThroughputMBs counts only bytes of successful writes, OfferedMBs counts
// every attempted byte. Latency figures cover successful writes only.
type Summary struct {
	TotalFiles     int     `json:"totalFiles"`
	Succeeded      int     `json:"succeeded"`
	Failed         int     `json:"failed"`
	TotalSeconds   float64 `json:"totalSeconds"`
	ThroughputMBs  float64 `json:"throughputMBs"`
	OfferedMBs     float64 `json:"offeredMBs"`
	AvgMsPerFile   float64 `json:"avgMsPerFile"`
	P95MsPerFile   float64 `json:"p95MsPerFile"`
	StabilityScore float64 `json:"stabilityScore"`

	// Reporting quantiles from the histogram.
	P50MsPerFile float64 `json:"p50MsPerFile"`
	P99MsPerFile float64 `json:"p99MsPerFile"`
	MaxMsPerFile float64 `json:"maxMsPerFile"`

	Batches []BatchReport `json:"batches"`
}

// ConcurrencyPath lists the concurrency each batch ran with.
func (s *Summary) ConcurrencyPath() []int {
	path := make([]int, len(s.Batches))
	for i, b := range s.Batches {
		path[i] = b.Concurrency
	}
	return path
}
