package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"surge/internal/cli"
	"surge/internal/logging"
	"surge/internal/sink"
)

var listCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List folders and objects under a prefix",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}

		var items []sink.Item
		if c, ok := remote(); ok {
			var err error
			if items, err = c.List(cmd.Context(), prefix); err != nil {
				return err
			}
		} else {
			s, err := openSink(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if items, err = s.List(cmd.Context(), prefix); err != nil {
				return err
			}
		}

		cli.PrintItems(os.Stdout, items)
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean <prefix>",
	Short: "Delete every object under a prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := args[0]

		var n int
		if c, ok := remote(); ok {
			var err error
			if n, err = c.DeleteAll(cmd.Context(), prefix); err != nil {
				return err
			}
		} else {
			s, err := openSink(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if n, err = s.DeletePrefix(cmd.Context(), prefix); err != nil {
				return err
			}
		}

		logging.Success("Deleted %d objects under %q", n, prefix)
		return nil
	},
}
