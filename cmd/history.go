package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"surge/internal/cli"
	"surge/internal/storage"
)

func openHistory() (*storage.History, error) {
	path := cfg.HistoryPath
	if path == "" {
		var err error
		if path, err = storage.DefaultHistoryPath(); err != nil {
			return nil, err
		}
	}
	return storage.OpenHistory(path)
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past runs, or show one in full",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHistory()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			item, ok := h.Get(args[0])
			if !ok {
				return fmt.Errorf("no run matching %q", args[0])
			}
			cli.PrintSummary(cmd.OutOrStdout(), item.Result, nil)
			return nil
		}

		items := h.List()
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "ID\tWHEN\tTARGET\tPREFIX\tFILES\tFAILED\tMB/S\tP95 MS")
		for _, it := range items {
			s := it.Result.Summary
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\t%.1f\n",
				it.ID[:min(8, len(it.ID))], humanize.Time(it.Timestamp), it.Target, it.Result.Prefix,
				s.TotalFiles, s.Failed, s.ThroughputMBs, s.P95MsPerFile)
		}
		return nil
	},
}
