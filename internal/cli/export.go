package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"surge/internal/controller"
	"surge/internal/job"
)

// ExportReports writes <prefix>.csv and <prefix>_summary.json.
func ExportReports(res *job.Result, prefix string) error {
	if err := ExportCSV(res.Batches, prefix+".csv"); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	if err := ExportSummary(res, prefix+"_summary.json"); err != nil {
		return fmt.Errorf("export summary: %w", err)
	}
	return nil
}

// ExportCSV writes the batch timeline, one row per batch.
func ExportCSV(batches []controller.BatchReport, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"batch", "attempted", "errors", "elapsedSeconds", "throughputMBs",
		"concurrency", "nextConcurrency", "decision", "done", "total",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, b := range batches {
		record := []string{
			strconv.Itoa(b.Index),
			strconv.Itoa(b.Attempted),
			strconv.Itoa(b.Errors),
			strconv.FormatFloat(b.ElapsedSeconds, 'f', 3, 64),
			strconv.FormatFloat(b.ThroughputMBs, 'f', 3, 64),
			strconv.Itoa(b.Concurrency),
			strconv.Itoa(b.NextConcurrency),
			string(b.Decision),
			strconv.Itoa(b.Done),
			strconv.Itoa(b.Total),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ExportSummary writes the result as indented JSON.
func ExportSummary(res *job.Result, filename string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
