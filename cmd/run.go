package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"surge/internal/cli"
	"surge/internal/job"
	"surge/internal/logging"
	"surge/internal/tui"
)

var (
	fileCount  int
	fileSizeMB int
	filePrefix string
	outPrefix  string
	useTUI     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an adaptive bulk upload",
	Example: `  surge run -n 500 -s 1 -p demo
  surge run --backend s3 --bucket bench -n 2000 --out report
  surge run --backend sim --sim-profile error --tui
  surge run --server http://127.0.0.1:3000 -n 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		req := job.Request{FileCount: fileCount, FileSizeMB: fileSizeMB, FilePrefix: filePrefix}
		if err := req.Validate(); err != nil {
			return err
		}

		if c, ok := remote(); ok {
			res, err := cli.StartRemote(ctx, c, cfg.Server.URL, req, outPrefix)
			record(cfg.Server.URL, req, res)
			return err
		}

		s, err := openSink(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		r, err := job.NewRunner(cfg.Controller, s)
		if err != nil {
			return err
		}

		var res *job.Result
		if useTUI {
			res, err = runTUI(ctx, r, req)
		} else {
			res, err = cli.Start(ctx, r, req, outPrefix)
		}
		record(s.Name(), req, res)
		return err
	},
}

func runTUI(ctx context.Context, r *job.Runner, req job.Request) (*job.Result, error) {
	res, err := tui.Run(ctx, r, req)
	if err != nil {
		return nil, err
	}
	cli.PrintSummary(os.Stdout, res, nil)
	if outPrefix != "" {
		if err := cli.ExportReports(res, outPrefix); err != nil {
			return res, err
		}
		logging.Success("Reports saved to %s{.csv,_summary.json}", outPrefix)
	}
	return res, nil
}

// record appends a finished run to the history. Failures only warn.
func record(target string, req job.Request, res *job.Result) {
	if res == nil || cfg.NoHistory {
		return
	}
	h, err := openHistory()
	if err != nil {
		logging.Warn("Run history unavailable: %v", err)
		return
	}
	if err := h.Record(target, req, res); err != nil {
		logging.Warn("Failed to save run history: %v", err)
	}
}

func init() {
	f := runCmd.Flags()
	f.IntVarP(&fileCount, "files", "n", 100, "number of objects to write")
	f.IntVarP(&fileSizeMB, "size-mb", "s", 1, "size of each object in MiB")
	f.StringVarP(&filePrefix, "prefix", "p", "", "key prefix (default run-<id>)")
	f.StringVarP(&outPrefix, "out", "o", "", "write <out>.csv and <out>_summary.json reports")
	f.BoolVar(&useTUI, "tui", false, "show the interactive terminal UI")
	f.Bool("no-history", false, "do not record this run in the history")

	f.Int("initial", 8, "initial concurrency")
	f.Int("min", 8, "minimum concurrency")
	f.Int("max", 128, "maximum concurrency")
	f.Duration("write-timeout", 0, "per-write timeout, 0 for none")

	bindFlags(f, map[string]string{
		"controller.initial":       "initial",
		"controller.min":           "min",
		"controller.max":           "max",
		"controller.write_timeout": "write-timeout",
		"no_history":               "no-history",
	})
}
