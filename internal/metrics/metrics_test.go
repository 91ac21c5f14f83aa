package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surge/internal/controller"
)

func TestBatchDone(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.BatchDone(controller.BatchReport{NextConcurrency: 12, ThroughputMBs: 40, Decision: controller.DecisionIncrease})
	m.BatchDone(controller.BatchReport{NextConcurrency: 8, ThroughputMBs: 10, Decision: controller.DecisionBackoff})

	assert.Equal(t, float64(2), testutil.ToFloat64(m.batches))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.backoffs))
	assert.Equal(t, float64(8), testutil.ToFloat64(m.concurrency))
	assert.Equal(t, float64(10), testutil.ToFloat64(m.throughput))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.decisions.WithLabelValues("increase")))
}

func TestInstrument(t *testing.T) {
	m := New(prometheus.NewRegistry())
	boom := errors.New("boom")
	write := m.Instrument(func(_ context.Context, key string) (time.Duration, error) {
		if key == "bad" {
			return 0, boom
		}
		return 20 * time.Millisecond, nil
	})

	_, err := write(context.Background(), "good")
	require.NoError(t, err)
	_, err = write(context.Background(), "good")
	require.NoError(t, err)
	_, err = write(context.Background(), "bad")
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.writes.WithLabelValues(resultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.writes.WithLabelValues(resultError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.writeLatency))
}

func TestExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.BatchDone(controller.BatchReport{NextConcurrency: 16, Decision: controller.DecisionHold})

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP surge_concurrency Concurrency chosen for the next batch.
# TYPE surge_concurrency gauge
surge_concurrency 16
`), "surge_concurrency")
	assert.NoError(t, err)
}

func TestDefaultIsSingleton(t *testing.T) {
	reg1, m1 := Default()
	reg2, m2 := Default()
	assert.Same(t, reg1, reg2)
	assert.Same(t, m1, m2)

	families, err := reg1.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_goroutines")
}
