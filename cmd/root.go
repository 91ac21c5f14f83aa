package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"surge/internal/banner"
	"surge/internal/config"
	"surge/internal/logging"
)

var (
	cfgFile string

	// Loaded in PersistentPreRunE, before any command body runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "surge",
	Short: "surge - adaptive bulk writer for object storage",
	Long: `
surge writes many objects to a storage backend in batches and tunes the
batch concurrency as it goes: additive increase while throughput improves,
halving on errors.

Backends: s3 (any S3-compatible service), bolt (local file), sim (simulated).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		logging.SetLevel(cfg.LogLevel)
		return nil
	},
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.surge.yaml)")
	pf.String("log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
	pf.String("backend", "sim", "storage backend: s3, bolt, sim")
	pf.String("bucket", "", "S3 bucket")
	pf.String("endpoint", "", "S3 endpoint URL for S3-compatible services")
	pf.String("region", "us-east-1", "S3 region")
	pf.String("bolt-path", "", "bolt database file (default is $HOME/.surge/objects.db)")
	pf.String("sim-profile", "fast", "simulated latency profile: fast, medium, slow, spike, error")
	pf.Int("sim-max-inflight", 0, "simulated throttle: more in-flight writes than this fail with 503")
	pf.String("server", "", "URL of a surge server to run against instead of a local backend")

	bindFlags(pf, map[string]string{
		"log_level":             "log-level",
		"sink.backend":          "backend",
		"sink.s3.bucket":        "bucket",
		"sink.s3.endpoint":      "endpoint",
		"sink.s3.region":        "region",
		"sink.bolt.path":        "bolt-path",
		"sink.sim.profile":      "sim-profile",
		"sink.sim.max_inflight": "sim-max-inflight",
		"server.url":            "server",
	})

	rootCmd.AddCommand(runCmd, serveCmd, listCmd, cleanCmd, historyCmd, versionCmd)
}
