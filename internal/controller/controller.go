// Package controller drives a bulk write workload in sequential batches and
// tunes the batch size (the concurrency) from observed throughput and errors,
// in the manner of TCP slow-start and congestion avoidance.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"surge/internal/stats"
)

const (
	mib = 1024 * 1024

	// Batches shorter than this are treated as taking this long.
	minBatchSeconds = 0.001
)

// Controller runs adaptive write workloads. It holds only configuration;
// every Run call owns its own mutable state, so a Controller may be shared
// by concurrent runs.
type Controller struct {
	cfg      Config
	observer Observer
	now      func() time.Time
}

type Option func(*Controller)

// WithObserver attaches an observer. Use Observers to attach several.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock replaces time.Now for batch and run timing.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func New(cfg Config, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:      cfg,
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// runState is the per-run mutable state. Only the coordinating goroutine
// touches it.
type runState struct {
	concurrency    int
	cursor         int
	lastThroughput float64

	samples []float64
	hist    *stats.Histogram
	failed  int
	batches []BatchReport
}

// Run attempts every key exactly once, in order, in batches whose size is
// the current concurrency. It returns an error only for invalid input or
// when ctx is cancelled before all keys were attempted; write failures are
// absorbed into the summary.
func (c *Controller) Run(ctx context.Context, keys []string, payloadBytes int, write WriteFunc) (*Summary, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	if payloadBytes <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPayload, payloadBytes)
	}
	if write == nil {
		return nil, ErrNilWrite
	}

	policy := c.cfg.policy()
	st := &runState{
		concurrency: c.cfg.InitialConcurrency,
		samples:     make([]float64, 0, len(keys)),
		hist:        stats.NewHistogram(),
	}
	runStart := c.now()

	for st.cursor < len(keys) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run aborted after %d of %d keys: %w", st.cursor, len(keys), err)
		}

		end := min(st.cursor+st.concurrency, len(keys))
		batch := keys[st.cursor:end]

		batchStart := c.now()
		outcomes := c.dispatch(ctx, batch, write)
		elapsed := max(c.now().Sub(batchStart).Seconds(), minBatchSeconds)

		errCount := 0
		for _, o := range outcomes {
			if !o.Succeeded {
				errCount++
				c.observer.WriteFailed(o.Key, o.Err)
				continue
			}
			st.samples = append(st.samples, o.ElapsedMs())
			st.hist.Record(o.Elapsed)
		}
		st.failed += errCount

		throughput := float64(len(batch)) * float64(payloadBytes) / mib / elapsed
		next, decision := policy.Adjust(errCount, throughput, st.lastThroughput, st.concurrency)

		report := BatchReport{
			Index:           len(st.batches),
			Attempted:       len(batch),
			Errors:          errCount,
			ElapsedSeconds:  elapsed,
			ThroughputMBs:   throughput,
			Concurrency:     st.concurrency,
			NextConcurrency: next,
			Decision:        decision,
			Done:            end,
			Total:           len(keys),
		}
		st.batches = append(st.batches, report)
		c.observer.BatchDone(report)

		st.concurrency = next
		st.lastThroughput = throughput
		st.cursor = end
	}

	totalSeconds := max(c.now().Sub(runStart).Seconds(), minBatchSeconds)
	return st.summary(len(keys), payloadBytes, totalSeconds), nil
}

// dispatch runs one write per key concurrently and waits for all of them.
func (c *Controller) dispatch(ctx context.Context, batch []string, write WriteFunc) []Outcome {
	p := pool.NewWithResults[Outcome]().WithMaxGoroutines(len(batch))
	for _, key := range batch {
		p.Go(func() Outcome {
			return c.attempt(ctx, key, write)
		})
	}
	return p.Wait()
}

// attempt performs a single write. Panics and timeouts become error outcomes
// so that siblings in the batch are unaffected.
func (c *Controller) attempt(ctx context.Context, key string, write WriteFunc) (out Outcome) {
	if c.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.WriteTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Key: key, Err: fmt.Errorf("write panicked: %v", r)}
		}
	}()

	elapsed, err := write(ctx, key)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return Outcome{Key: key, Err: err}
	}
	return Outcome{Key: key, Elapsed: max(elapsed, 0), Succeeded: true}
}

func (st *runState) summary(total, payloadBytes int, seconds float64) *Summary {
	lat := stats.Summarize(st.samples)
	succeeded := total - st.failed

	return &Summary{
		TotalFiles:     total,
		Succeeded:      succeeded,
		Failed:         st.failed,
		TotalSeconds:   seconds,
		ThroughputMBs:  float64(succeeded) * float64(payloadBytes) / mib / seconds,
		OfferedMBs:     float64(total) * float64(payloadBytes) / mib / seconds,
		AvgMsPerFile:   lat.AvgMs,
		P95MsPerFile:   lat.P95Ms,
		StabilityScore: lat.Stability,
		P50MsPerFile:   st.hist.QuantileMs(50),
		P99MsPerFile:   st.hist.QuantileMs(99),
		MaxMsPerFile:   st.hist.MaxMs(),
		Batches:        st.batches,
	}
}
