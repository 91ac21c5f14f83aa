// Package config loads surge settings from defaults, an optional YAML file,
// the environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"surge/internal/controller"
	"surge/internal/logging"
	"surge/internal/sink"
)

const EnvPrefix = "SURGE"

var validate = validator.New()

type Config struct {
	LogLevel   string            `mapstructure:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`
	Controller controller.Config `mapstructure:"controller"`
	Sink       sink.Config       `mapstructure:"sink"`
	Server     ServerConfig      `mapstructure:"server"`

	// HistoryPath is the run history file; empty means $HOME/.surge/history.json.
	HistoryPath string `mapstructure:"history_path"`
	NoHistory   bool   `mapstructure:"no_history"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"hostname_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	// URL of a remote surge server; run delegates to it when set.
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// legacyEnv maps keys to the unprefixed variables the upload service used.
var legacyEnv = map[string][]string{
	"sink.s3.region":            {"REGION", "AWS_REGION"},
	"sink.s3.endpoint":          {"ENDPOINT"},
	"sink.s3.bucket":            {"BUCKET"},
	"sink.s3.access_key_id":     {"AWS_ACCESS_KEY_ID"},
	"sink.s3.secret_access_key": {"AWS_SECRET_ACCESS_KEY"},
}

// SetDefaults registers every key so that environment overrides reach
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	c := controller.DefaultConfig()
	v.SetDefault("log_level", "INFO")

	v.SetDefault("controller.initial", c.InitialConcurrency)
	v.SetDefault("controller.min", c.MinConcurrency)
	v.SetDefault("controller.max", c.MaxConcurrency)
	v.SetDefault("controller.step", c.Step)
	v.SetDefault("controller.increase_threshold", c.IncreaseThreshold)
	v.SetDefault("controller.decrease_threshold", c.DecreaseThreshold)
	v.SetDefault("controller.backoff_factor", c.BackoffFactor)
	v.SetDefault("controller.decay_factor", c.DecayFactor)
	v.SetDefault("controller.write_timeout", time.Duration(0))

	v.SetDefault("sink.backend", sink.BackendSim)
	v.SetDefault("sink.s3.endpoint", "")
	v.SetDefault("sink.s3.region", "us-east-1")
	v.SetDefault("sink.s3.bucket", "")
	v.SetDefault("sink.s3.access_key_id", "")
	v.SetDefault("sink.s3.secret_access_key", "")
	v.SetDefault("sink.s3.force_path_style", true)
	v.SetDefault("sink.s3.acl", "")
	v.SetDefault("sink.s3.max_retries", 0)
	v.SetDefault("sink.bolt.path", "")
	v.SetDefault("sink.bolt.bucket", "objects")
	v.SetDefault("sink.sim.profile", sink.ProfileFast)
	v.SetDefault("sink.sim.max_inflight", 0)
	v.SetDefault("sink.sim.time_scale", 1.0)
	v.SetDefault("sink.sim.seed", 0)

	v.SetDefault("server.addr", "127.0.0.1:3000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.url", "")

	v.SetDefault("history_path", "")
	v.SetDefault("no_history", false)
}

// Load reads cfgFile (or $HOME/.surge.yaml when empty) into v, applies the
// environment and returns the validated result. A missing default file is
// not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".surge")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		logging.Debug("Using config file %s", v.ConfigFileUsed())
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		args := append([]string{key, EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Controller.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Sink.Backend == sink.BackendS3 && c.Sink.S3.Bucket == "" {
		return errors.New("invalid config: sink.s3.bucket is required for the s3 backend")
	}
	return nil
}
