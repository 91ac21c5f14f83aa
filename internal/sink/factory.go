package sink

import (
	"context"
	"fmt"
)

const (
	BackendS3   = "s3"
	BackendBolt = "bolt"
	BackendSim  = "sim"
)

// Config selects and configures a backend.
type Config struct {
	Backend string     `mapstructure:"backend" validate:"oneof=s3 bolt sim"`
	S3      S3Config   `mapstructure:"s3"`
	Bolt    BoltConfig `mapstructure:"bolt"`
	Sim     SimConfig  `mapstructure:"sim"`
}

// New opens the backend named by cfg.Backend.
func New(ctx context.Context, cfg Config) (Sink, error) {
	switch cfg.Backend {
	case BackendS3:
		return NewS3(ctx, cfg.S3)
	case BackendBolt:
		return NewBolt(cfg.Bolt)
	case BackendSim:
		return NewSim(cfg.Sim)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}
