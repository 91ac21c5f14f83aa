// Package cli renders headless runs: a header, a live progress line fed by
// batch reports, the final summary and optional report files.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"surge/internal/client"
	"surge/internal/controller"
	"surge/internal/job"
	"surge/internal/sink"
)

const rule = "======================================================================"

// Progress prints one line per completed batch and groups write failures by
// their root cause. It is a controller.Observer.
type Progress struct {
	w        io.Writer
	start    time.Time
	failures map[string]int
}

func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w, start: time.Now(), failures: make(map[string]int)}
}

func (p *Progress) BatchDone(r controller.BatchReport) {
	pct := 0.0
	if r.Total > 0 {
		pct = float64(r.Done) / float64(r.Total)
	}
	fmt.Fprintf(p.w, "\r%s %3.0f%% | %d/%d | Conc: %3d -> %-3d %-8s | %7.2f MB/s | Err: %d   ",
		progressBar(pct, 20), pct*100,
		r.Done, r.Total,
		r.Concurrency, r.NextConcurrency, r.Decision,
		r.ThroughputMBs,
		r.Errors,
	)
}

func (p *Progress) WriteFailed(_ string, err error) {
	p.failures[rootCause(err)]++
}

// Failures returns failure counts keyed by root cause.
func (p *Progress) Failures() map[string]int {
	return p.failures
}

// rootCause strips wrapping such as the backend and key of an OpError.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// Start runs req locally with r and prints progress and results to stdout.
func Start(ctx context.Context, r *job.Runner, req job.Request, outPrefix string) (*job.Result, error) {
	return run(os.Stdout, r.Sink().Name(), req, outPrefix, func(p *Progress) (*job.Result, error) {
		return r.Run(ctx, req, p)
	})
}

// StartRemote runs req on a surge server. No per-batch progress is
// available; the batch timeline is printed from the result instead.
func StartRemote(ctx context.Context, c *client.Client, url string, req job.Request, outPrefix string) (*job.Result, error) {
	return run(os.Stdout, "remote "+url, req, outPrefix, func(p *Progress) (*job.Result, error) {
		fmt.Fprintf(p.w, "Waiting for %s to finish the run...\n", url)
		res, err := c.Upload(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, b := range res.Batches {
			p.BatchDone(b)
			fmt.Fprintln(p.w)
		}
		return res, nil
	})
}

func run(w io.Writer, target string, req job.Request, outPrefix string, exec func(*Progress) (*job.Result, error)) (*job.Result, error) {
	printHeader(w, target, req)

	p := NewProgress(w)
	res, err := exec(p)
	if err != nil {
		fmt.Fprintf(w, "\n\n❌ Run failed: %v\n", err)
		return nil, err
	}

	PrintSummary(w, res, p.Failures())
	if outPrefix != "" {
		fmt.Fprintf(w, "\n💾 Generating reports with prefix: %s\n", outPrefix)
		if err := ExportReports(res, outPrefix); err != nil {
			return res, err
		}
		fmt.Fprintf(w, "✅ Reports saved to %s{.csv,_summary.json}\n", outPrefix)
	}
	return res, nil
}

func printHeader(w io.Writer, target string, req job.Request) {
	prefix := req.FilePrefix
	if prefix == "" {
		prefix = "(generated)"
	}
	fmt.Fprintf(w, "\n🚀 STARTING ADAPTIVE UPLOAD\n")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Sink       : %s\n", target)
	fmt.Fprintf(w, "Prefix     : %s\n", prefix)
	fmt.Fprintf(w, "Files      : %d x %d MB\n", req.FileCount, req.FileSizeMB)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

// PrintSummary writes the result table and, if any, the failure summary.
func PrintSummary(w io.Writer, res *job.Result, failures map[string]int) {
	s := res.Summary

	fmt.Fprintf(w, "\n\n📊 ADAPTIVE UPLOAD RESULTS (%s)\n", res.Prefix)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Run ID         : %s\n", res.RunID)
	fmt.Fprintf(w, "Total Duration : %.2fs\n", s.TotalSeconds)
	fmt.Fprintf(w, "Files          : %d\n", s.TotalFiles)
	fmt.Fprintf(w, "Success        : %d\n", s.Succeeded)
	fmt.Fprintf(w, "Failures       : %d\n", s.Failed)
	fmt.Fprintf(w, "Throughput     : %.2f MB/s (offered %.2f MB/s)\n", s.ThroughputMBs, s.OfferedMBs)
	fmt.Fprintf(w, "Stability      : %.1f / 100\n", s.StabilityScore)
	fmt.Fprintf(w, "\n⏱️  WRITE TIMES (ms) [Success Only]\n")
	fmt.Fprintf(w, "   Avg : %.2f\n", s.AvgMsPerFile)
	fmt.Fprintf(w, "   P50 : %.2f\n", s.P50MsPerFile)
	fmt.Fprintf(w, "   P95 : %.2f\n", s.P95MsPerFile)
	fmt.Fprintf(w, "   P99 : %.2f\n", s.P99MsPerFile)
	fmt.Fprintf(w, "   Max : %.2f\n", s.MaxMsPerFile)
	fmt.Fprintf(w, "\n📈 CONCURRENCY PATH\n   %s\n", formatPath(s.ConcurrencyPath()))

	if len(failures) > 0 {
		fmt.Fprintf(w, "\n❌ FAILURE SUMMARY\n")
		causes := make([]string, 0, len(failures))
		for c := range failures {
			causes = append(causes, c)
		}
		sort.Slice(causes, func(i, j int) bool {
			if failures[causes[i]] != failures[causes[j]] {
				return failures[causes[i]] > failures[causes[j]]
			}
			return causes[i] < causes[j]
		})
		for _, c := range causes {
			fmt.Fprintf(w, "   %d x %s\n", failures[c], c)
		}
	}
	fmt.Fprintln(w, rule)
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, c := range path {
		parts[i] = fmt.Sprint(c)
	}
	return strings.Join(parts, " → ")
}

// PrintItems lists folders and files in a table.
func PrintItems(w io.Writer, items []sink.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No objects found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TYPE\tKEY\tSIZE\tMODIFIED")
	for _, it := range items {
		size, modified := "-", "-"
		if it.Type == sink.TypeFile {
			size = humanize.IBytes(uint64(it.Size))
			if it.LastModified != nil {
				modified = humanize.Time(*it.LastModified)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Type, it.Key, size, modified)
	}
}
