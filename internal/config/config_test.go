package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surge/internal/controller"
	"surge/internal/sink"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, controller.DefaultConfig(), cfg.Controller)
	assert.Equal(t, sink.BackendSim, cfg.Sink.Backend)
	assert.Equal(t, sink.ProfileFast, cfg.Sink.Sim.Profile)
	assert.Equal(t, "127.0.0.1:3000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "surge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
controller:
  initial: 16
  max: 64
  write_timeout: 2s
sink:
  backend: bolt
  bolt:
    path: /tmp/x.db
`), 0644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 16, cfg.Controller.InitialConcurrency)
	assert.Equal(t, 8, cfg.Controller.MinConcurrency)
	assert.Equal(t, 64, cfg.Controller.MaxConcurrency)
	assert.Equal(t, 2*time.Second, cfg.Controller.WriteTimeout)
	assert.Equal(t, sink.BackendBolt, cfg.Sink.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.Sink.Bolt.Path)
}

func TestLoad_HomeFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".surge.yaml"), []byte("controller:\n  step: 2\n"), 0644))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Controller.Step)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("SURGE_CONTROLLER_MAX", "32")
	t.Setenv("SURGE_SINK_BACKEND", "s3")
	t.Setenv("BUCKET", "bench")
	t.Setenv("REGION", "eu-west-1")
	t.Setenv("ENDPOINT", "http://localhost:9000")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Controller.MaxConcurrency)
	assert.Equal(t, sink.BackendS3, cfg.Sink.Backend)
	assert.Equal(t, "bench", cfg.Sink.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Sink.S3.Region)
	assert.Equal(t, "http://localhost:9000", cfg.Sink.S3.Endpoint)
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	isolate(t)
	t.Setenv("SURGE_SINK_S3_BUCKET", "primary")
	t.Setenv("BUCKET", "legacy")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Sink.S3.Bucket)
}

func TestValidate(t *testing.T) {
	isolate(t)
	base, err := Load(viper.New(), "")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "TRACE" }, "LogLevel"},
		{"initial above max", func(c *Config) { c.Controller.InitialConcurrency = 500 }, "invalid configuration"},
		{"unknown backend", func(c *Config) { c.Sink.Backend = "ftp" }, "Backend"},
		{"s3 without bucket", func(c *Config) { c.Sink.Backend = sink.BackendS3 }, "bucket is required"},
		{"bad addr", func(c *Config) { c.Server.Addr = "nowhere" }, "Addr"},
		{"bad server url", func(c *Config) { c.Server.URL = "::not a url" }, "URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
