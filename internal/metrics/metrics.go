// Package metrics exports run progress as Prometheus collectors.
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"surge/internal/controller"
)

const namespace = "surge"

const (
	resultSuccess = "success"
	resultError   = "error"
)

// Metrics is both a controller.Observer and a write instrumenter.
type Metrics struct {
	concurrency  prometheus.Gauge
	throughput   prometheus.Gauge
	batches      prometheus.Counter
	backoffs     prometheus.Counter
	decisions    *prometheus.CounterVec
	writes       *prometheus.CounterVec
	writeLatency prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		concurrency: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concurrency",
			Help:      "Concurrency chosen for the next batch.",
		}),
		throughput: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_throughput_mbs",
			Help:      "Offered throughput of the last completed batch in MB/s.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Completed batches.",
		}),
		backoffs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backoffs_total",
			Help:      "Batches that halved concurrency because of write errors.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Congestion policy decisions by kind.",
		}, []string{"decision"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Write attempts by result.",
		}, []string{"result"}),
		writeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_latency_seconds",
			Help:      "Latency of successful writes.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
	reg.MustRegister(m.concurrency, m.throughput, m.batches, m.backoffs, m.decisions, m.writes, m.writeLatency)
	return m
}

var (
	defaultOnce     sync.Once
	defaultRegistry *prometheus.Registry
	defaultMetrics  *Metrics
)

// Default returns the process-wide registry and metrics, registering the Go
// and process collectors alongside them on first use.
func Default() (*prometheus.Registry, *Metrics) {
	defaultOnce.Do(func() {
		defaultRegistry = prometheus.NewRegistry()
		defaultRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		defaultMetrics = New(defaultRegistry)
	})
	return defaultRegistry, defaultMetrics
}

func (m *Metrics) BatchDone(r controller.BatchReport) {
	m.batches.Inc()
	m.concurrency.Set(float64(r.NextConcurrency))
	m.throughput.Set(r.ThroughputMBs)
	m.decisions.WithLabelValues(string(r.Decision)).Inc()
	if r.Decision == controller.DecisionBackoff {
		m.backoffs.Inc()
	}
}

// WriteFailed is a no-op; failures are counted by Instrument.
func (m *Metrics) WriteFailed(string, error) {}

// Instrument wraps write to count results and record latencies.
func (m *Metrics) Instrument(write controller.WriteFunc) controller.WriteFunc {
	return func(ctx context.Context, key string) (time.Duration, error) {
		d, err := write(ctx, key)
		if err != nil {
			m.writes.WithLabelValues(resultError).Inc()
			return d, err
		}
		m.writes.WithLabelValues(resultSuccess).Inc()
		m.writeLatency.Observe(d.Seconds())
		return d, nil
	}
}
