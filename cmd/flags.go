package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"surge/internal/client"
	"surge/internal/sink"
)

// bindFlags binds config keys to flag names. Unset flags do not override
// the file or environment.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// openSink opens the configured backend.
func openSink(ctx context.Context) (sink.Sink, error) {
	s, err := sink.New(ctx, cfg.Sink)
	if err != nil {
		return nil, fmt.Errorf("open %s sink: %w", cfg.Sink.Backend, err)
	}
	return s, nil
}

// remote returns a client when --server is configured.
func remote() (*client.Client, bool) {
	if cfg.Server.URL == "" {
		return nil, false
	}
	return client.New(cfg.Server.URL, 30*time.Minute), true
}
