package result

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"surge/internal/controller"
	"surge/internal/job"
)

func TestView_Result(t *testing.T) {
	res := &job.Result{
		Mode:   job.ModeAdaptive,
		Prefix: "demo",
		Summary: &controller.Summary{
			TotalFiles:    10,
			Succeeded:     10,
			ThroughputMBs: 12.34,
			P95MsPerFile:  80,
			Batches:       []controller.BatchReport{{Concurrency: 8}, {Concurrency: 12}},
		},
	}
	m := NewModel(res, nil)
	m.Width = 80
	view := m.View()

	assert.Contains(t, view, "Upload Complete: demo")
	assert.Contains(t, view, "12.34 MB/s")
	assert.Contains(t, view, "P95: 80.00 ms")
	assert.Contains(t, view, "8 → 12")
}

func TestView_Error(t *testing.T) {
	view := NewModel(nil, errors.New("context canceled")).View()
	assert.Contains(t, view, "Run Aborted")
	assert.Contains(t, view, "context canceled")
}
