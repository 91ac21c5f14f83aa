package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram is a thread-safe wrapper around hdrhistogram used for the
// reporting quantiles (p50/p90/p99/max) that sit next to the exact
// nearest-rank P95 of Summarize.
type Histogram struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

func NewHistogram() *Histogram {
	// 1us to 10min, 3 significant figures
	h := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	return &Histogram{hist: h}
}

// Record adds d. Values outside the trackable range are clamped.
func (h *Histogram) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.hist.RecordValue(us); err != nil {
		_ = h.hist.RecordValue(h.hist.HighestTrackableValue())
	}
}

// QuantileMs returns the value at percentile q (0-100) in milliseconds.
func (h *Histogram) QuantileMs(q float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hist.TotalCount() == 0 {
		return 0
	}
	return float64(h.hist.ValueAtQuantile(q)) / 1000.0
}

func (h *Histogram) MaxMs() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hist.TotalCount() == 0 {
		return 0
	}
	return float64(h.hist.Max()) / 1000.0
}

func (h *Histogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}
