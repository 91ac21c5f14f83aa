package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"surge/internal/api"
	"surge/internal/job"
	"surge/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openSink(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		reg, m := metrics.Default()
		r, err := job.NewRunner(cfg.Controller, s,
			job.WithObserver(m),
			job.WithWriteMiddleware(m.Instrument))
		if err != nil {
			return err
		}

		srv, err := api.NewServer(api.Config{Addr: cfg.Server.Addr, Runner: r, Gatherer: reg})
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return err
		}

		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:3000", "listen address")
	bindFlags(serveCmd.Flags(), map[string]string{"server.addr": "addr"})
}
