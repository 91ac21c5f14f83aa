package controller

import "surge/internal/logging"

// Observer receives progress from a run. Both methods are called from the
// coordinating goroutine, between batches, never concurrently.
type Observer interface {
	BatchDone(BatchReport)
	WriteFailed(key string, err error)
}

// Observers fans out to each element in order.
type Observers []Observer

func (obs Observers) BatchDone(r BatchReport) {
	for _, o := range obs {
		o.BatchDone(r)
	}
}

func (obs Observers) WriteFailed(key string, err error) {
	for _, o := range obs {
		o.WriteFailed(key, err)
	}
}

// LogObserver logs write errors and congestion decisions.
type LogObserver struct{}

func (LogObserver) BatchDone(r BatchReport) {
	logging.Debug("batch %d: %d keys, %d errors, %.2f MB/s, concurrency %d -> %d (%s)",
		r.Index, r.Attempted, r.Errors, r.ThroughputMBs, r.Concurrency, r.NextConcurrency, r.Decision)
}

func (LogObserver) WriteFailed(key string, err error) {
	logging.Error("Upload error %s: %v", key, err)
}

type nopObserver struct{}

func (nopObserver) BatchDone(BatchReport)     {}
func (nopObserver) WriteFailed(string, error) {}
