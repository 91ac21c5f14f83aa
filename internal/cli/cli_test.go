package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surge/internal/controller"
	"surge/internal/job"
	"surge/internal/sink"
)

func sampleResult() *job.Result {
	return &job.Result{
		Mode:   job.ModeAdaptive,
		RunID:  "11111111-2222-3333-4444-555555555555",
		Prefix: "demo",
		Summary: &controller.Summary{
			TotalFiles:     24,
			Succeeded:      23,
			Failed:         1,
			TotalSeconds:   1.5,
			ThroughputMBs:  15.3,
			OfferedMBs:     16,
			AvgMsPerFile:   40,
			P95MsPerFile:   55,
			StabilityScore: 88.5,
			Batches: []controller.BatchReport{
				{Index: 0, Attempted: 8, Concurrency: 8, NextConcurrency: 12, Decision: controller.DecisionIncrease, Done: 8, Total: 24, ThroughputMBs: 10, ElapsedSeconds: 0.8},
				{Index: 1, Attempted: 12, Errors: 1, Concurrency: 12, NextConcurrency: 8, Decision: controller.DecisionBackoff, Done: 20, Total: 24, ThroughputMBs: 20, ElapsedSeconds: 0.6},
				{Index: 2, Attempted: 4, Concurrency: 8, NextConcurrency: 8, Decision: controller.DecisionDecrease, Done: 24, Total: 24, ThroughputMBs: 5, ElapsedSeconds: 0.8},
			},
		},
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "[----]"},
		{0.5, "[██--]"},
		{1, "[████]"},
		{2, "[████]"},
		{-1, "[----]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progressBar(tt.pct, 4), fmt.Sprint(tt.pct))
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.BatchDone(controller.BatchReport{Done: 8, Total: 16, Concurrency: 8, NextConcurrency: 12, Decision: controller.DecisionIncrease, ThroughputMBs: 12.5})
	assert.Contains(t, buf.String(), " 50%")
	assert.Contains(t, buf.String(), "8/16")
	assert.Contains(t, buf.String(), "12.50 MB/s")

	denied := errors.New("AccessDenied")
	p.WriteFailed("a", &sink.OpError{Backend: "s3", Op: "put", Key: "a", Err: denied})
	p.WriteFailed("b", &sink.OpError{Backend: "s3", Op: "put", Key: "b", Err: denied})
	p.WriteFailed("c", errors.New("timeout"))
	assert.Equal(t, map[string]int{"AccessDenied": 2, "timeout": 1}, p.Failures())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, sampleResult(), map[string]int{"503 SlowDown": 1, "429 Too Many Requests": 3})
	out := buf.String()

	assert.Contains(t, out, "Files          : 24")
	assert.Contains(t, out, "15.30 MB/s (offered 16.00 MB/s)")
	assert.Contains(t, out, "P95 : 55.00")
	assert.Contains(t, out, "8 → 12 → 8")
	assert.Less(t, strings.Index(out, "3 x 429"), strings.Index(out, "1 x 503"))
}

func TestPrintItems(t *testing.T) {
	var buf bytes.Buffer
	PrintItems(&buf, nil)
	assert.Equal(t, "No objects found\n", buf.String())

	buf.Reset()
	now := time.Now()
	PrintItems(&buf, []sink.Item{
		{Key: "demo/", Type: sink.TypeFolder},
		{Key: "demo/a.bin", Size: 2048, LastModified: &now, Type: sink.TypeFile},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TYPE"))
	assert.Contains(t, lines[1], "demo/")
	assert.Contains(t, lines[2], "2.0 KiB")
}

func TestExportReports(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "report")
	require.NoError(t, ExportReports(sampleResult(), prefix))

	f, err := os.Open(prefix + ".csv")
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "batch", rows[0][0])
	assert.Equal(t, []string{"1", "12", "1", "0.600", "20.000", "12", "8", "backoff", "20", "24"}, rows[2])

	data, err := os.ReadFile(prefix + "_summary.json")
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "adaptive", m["mode"])
	assert.Equal(t, 55.0, m["p95MsPerFile"])
}

func TestExportCSV_BadPath(t *testing.T) {
	err := ExportCSV(nil, filepath.Join(t.TempDir(), "missing", "x.csv"))
	assert.Error(t, err)
}

func TestRun_Local(t *testing.T) {
	s, err := sink.NewSim(sink.SimConfig{TimeScale: 0.01, Seed: 5})
	require.NoError(t, err)
	r, err := job.NewRunner(controller.DefaultConfig(), s)
	require.NoError(t, err)

	var buf bytes.Buffer
	req := job.Request{FileCount: 16, FileSizeMB: 1, FilePrefix: "cli"}
	prefix := filepath.Join(t.TempDir(), "out")
	res, err := run(&buf, "sim", req, prefix, func(p *Progress) (*job.Result, error) {
		return r.Run(context.Background(), req, p)
	})
	require.NoError(t, err)
	assert.Equal(t, 16, res.Succeeded)

	out := buf.String()
	assert.Contains(t, out, "STARTING ADAPTIVE UPLOAD")
	assert.Contains(t, out, "16/16")
	assert.Contains(t, out, "Success        : 16")
	assert.FileExists(t, prefix+".csv")
	assert.FileExists(t, prefix+"_summary.json")
}

func TestRun_Failure(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")
	_, err := run(&buf, "sim", job.Request{FileCount: 1, FileSizeMB: 1}, "", func(*Progress) (*job.Result, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "Run failed: boom")
}
